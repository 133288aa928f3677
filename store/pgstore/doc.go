// Package pgstore persists session records in PostgreSQL.
//
// Records live in a single table (default "sessions") with the session ID as
// text primary key, the data bag as JSON in a bytea column, and a nullable
// timestamptz deadline. Upserts use ON CONFLICT, reads filter expired rows in
// SQL, and DeleteExpired makes the store compatible with
// session.ContinuouslyDeleteExpired for background cleanup.
//
// # Usage
//
//	var cfg pgstore.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pgstore.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	store, err := pgstore.New(pool)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := store.Migrate(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	go session.ContinuouslyDeleteExpired(ctx, store, time.Hour)
//	http.ListenAndServe(":8080", middleware.Session(store)(mux))
//
// The store accepts anything satisfying its DB interface, so it runs equally
// on a pgxpool.Pool, a single pgx.Conn, or inside an open transaction.
package pgstore
