// Package dynamostore persists session records in DynamoDB.
//
// Records live in a single table (default "sessions") with the session ID as
// the partition key, the data bag as JSON in a binary attribute, and an
// optional expires_at attribute holding epoch seconds. Point the table's
// native TTL at expires_at to let DynamoDB evict expired records; eviction is
// lazy (it can lag by hours), so reads filter by deadline and DeleteExpired
// performs explicit scan-and-batch-delete sweeps.
//
// # Usage
//
//	var cfg dynamostore.Config
//	config.MustLoad(&cfg)
//
//	client, err := dynamostore.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	store := dynamostore.New(client, dynamostore.WithTableName(cfg.Table))
//	http.ListenAndServe(":8080", middleware.Session(store)(mux))
//
// The store accepts anything satisfying its Client interface, which keeps
// unit tests free of network dependencies.
package dynamostore
