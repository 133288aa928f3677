// Package redisstore persists session records in Redis.
//
// Records are stored as JSON under "session:<id>" keys, and record expiry maps
// directly onto Redis key TTLs: a session that expires on inactivity or at a
// fixed time is written with a matching TTL, so Redis evicts it on its own and
// no expired-record sweeping is needed. Records without an expiry are written
// without a TTL and live until explicitly deleted.
//
// # Usage
//
//	var cfg redisstore.Config
//	config.MustLoad(&cfg)
//
//	client, err := redisstore.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	store := redisstore.New(client)
//	http.ListenAndServe(":8080", middleware.Session(store)(mux))
//
// Connect validates the configured URL, retries transient failures, and
// verifies connectivity with a ping before returning. Healthcheck exposes the
// same ping as a probe function for health endpoints.
package redisstore
