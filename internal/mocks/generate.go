// Package mocks provides gomock mocks for the gateway ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	creator := mocks.NewMockRepoCreator(ctrl)
//	creator.EXPECT().Create(gomock.Any(), gomock.Any()).Return(repo.Result{"id": 1}, nil)
package mocks

// Generate mocks for the repository creation ports:
// RepoCreator (Create), OrganizationDirectory (Resolve, List), CustomizationHook (CreateContext).
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/target/repo-gateway/internal/ports RepoCreator,OrganizationDirectory,CustomizationHook
