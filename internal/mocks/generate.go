// Package mocks provides mock implementations of the translation queue ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the interfaces in internal/core.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockJobRepository(ctrl)
//	repo.EXPECT().Claim(gomock.Any(), gomock.Any()).Return(jobs, nil)
package mocks

// JobRepository: Enqueue, GetByID, Claim, UpdateState, RevertToPending, GetByState, MarkOutdated,
// CountByState, CountOutstanding, RequeueFailed, ResyncOutdated, DeleteOlderThan
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/target/translation-queue/internal/core JobRepository

// RunLock: Acquire, Release, IsLocked, ForceRelease
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=run_lock_mock.go github.com/target/translation-queue/internal/core RunLock

// StatusRepository: SetFieldStatus, ListFieldStatuses, SetEntityStatus, GetEntityStatus
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=status_repository_mock.go github.com/target/translation-queue/internal/core StatusRepository

// PreviewRepository: Save, ListByJob
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=preview_repository_mock.go github.com/target/translation-queue/internal/core PreviewRepository

// ContentStore: ResolveEntity, ResolvePairedEntity, ReadField, WriteField
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=content_store_mock.go github.com/target/translation-queue/internal/core ContentStore

// Translator: Translate
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=translator_mock.go github.com/target/translation-queue/internal/core Translator

// EventPublisher: Publish
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=event_publisher_mock.go github.com/target/translation-queue/internal/core EventPublisher

// EventListener: HandleTranslated
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=event_listener_mock.go github.com/target/translation-queue/internal/core EventListener

// CacheRepository: Set, Get, Delete, CompareAndDelete, Exists, SetTTL, SetIfNotExists, Health
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/target/translation-queue/internal/core CacheRepository
