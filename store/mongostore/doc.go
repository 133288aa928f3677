// Package mongostore persists session records in MongoDB.
//
// Records live in a single collection (default "sessions") with the session
// ID as the document _id, the data bag as JSON bytes, and an optional
// expires_at deadline. EnsureTTLIndex installs a TTL index on expires_at so
// MongoDB evicts expired records itself; since the server sweep only runs
// periodically, reads additionally filter by deadline, and DeleteExpired is
// available for explicit cleanup.
//
// # Usage
//
//	var cfg mongostore.Config
//	config.MustLoad(&cfg)
//
//	client, err := mongostore.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Disconnect(ctx)
//
//	store := mongostore.New(client.Database("app"))
//	if err := store.EnsureTTLIndex(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	http.ListenAndServe(":8080", middleware.Session(store)(mux))
package mongostore
