// Package mocks provides mock implementations for testing the queue engine and its jobs.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the ports in internal/core.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockQueueStore(ctrl)
//	store.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(item, nil)
package mocks

// Generate mocks for the queue store, the claim transaction and the business record reader.
// MockQueueStore: Enqueue, WithTx, GetByID, List, Delete
// MockQueueTx: ClaimNext, Insert, Update, CountPending, DeleteScheduledAfter, DeleteSucceededBefore, SQL, Now
// MockRecordRepository: Membership, Account, DeleteExpiredSessions, FirstPartyAggregators, TaskExists
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=queue_store_mock.go github.com/target/mmk-jobqueue/internal/core QueueStore,QueueTx,RecordRepository

// Generate mocks for the remote service ports used by the v1 jobs and the token cache.
// MockAggregatorAPI: TaskIDs, DeleteTask
// MockAggregatorClientFactory: ForAggregator
// MockCacheRepository: Set, Get, Delete, SetIfNotExists, Health
// MockIdentityProvider: CreateUser, PasswordResetTicket
// MockMailer: SendTemplate
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=clients_mock.go github.com/target/mmk-jobqueue/internal/core AggregatorAPI,AggregatorClientFactory,CacheRepository,IdentityProvider,Mailer
