package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/repo-gateway/internal/domain/repo"
	apperrors "github.com/target/repo-gateway/internal/errors"
	"github.com/target/repo-gateway/internal/mocks"
	mockauth "github.com/target/repo-gateway/internal/mocks/auth"
	"github.com/target/repo-gateway/internal/ports"
)

func newCreateRequest(headers map[string]string, body map[string]any) CreateRequest {
	return CreateRequest{
		Request:       httptest.NewRequest(http.MethodPost, "/acme/repos", nil),
		Organization:  repo.Organization{Name: "acme", ID: "1"},
		Headers:       headers,
		Body:          body,
		CorrelationID: "corr-1",
	}
}

func assertNoSecrets(t *testing.T, props map[string]string) {
	t.Helper()
	for k, v := range props {
		assert.False(t, repo.IsSensitiveKey(k), "property %q must not be present", k)
		assert.NotContains(t, v, "secret-token")
		assert.NotContains(t, v, "Bearer xyz")
	}
}

func TestRepoCreationService_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	creator := mocks.NewMockRepoCreator(ctrl)
	sink := &mockauth.RecordingSink{}

	want := repo.Result{"id": float64(7), "name": "widgets"}
	creator.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in ports.CreateInput) (repo.Result, error) {
			assert.Equal(t, repo.EntrypointAPI, in.Entrypoint)
			assert.Equal(t, "acme", in.Organization.Name)
			assert.Nil(t, in.Hook)
			assert.Nil(t, in.CustomContext)
			assert.NotContains(t, in.Payload, "access_token")
			assert.NotContains(t, in.Payload, "Authorization")
			// body wins over header on conflict
			assert.Equal(t, "widgets", in.Payload["name"])
			assert.Equal(t, "private", in.Payload["visibility"])
			return want, nil
		})

	svc := NewRepoCreationService(RepoCreationServiceOptions{
		Creator:   creator,
		Observers: RepoCreationObservers{Telemetry: sink},
	})

	got, err := svc.Create(context.Background(), newCreateRequest(
		map[string]string{"name": "from-header", "visibility": "private", "Authorization": "Bearer xyz"},
		map[string]any{"name": "widgets", "access_token": "secret-token"},
	))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventRepoCreateRequest, events[0].Name)
	assert.Equal(t, EventRepoCreateSuccess, events[1].Name)

	var headers map[string]string
	require.NoError(t, json.Unmarshal([]byte(events[0].Properties["headers"]), &headers))
	assert.Equal(t, "from-header", headers["name"])
	assert.Equal(t, redacted, headers["Authorization"])

	success := events[1].Properties
	assertNoSecrets(t, success)
	assert.JSONEq(t, `{"id":7,"name":"widgets"}`, success["response"])
	assert.Equal(t, "corr-1", success["correlation_id"])
	assert.Equal(t, "api", success["entrypoint"])
}

func TestRepoCreationService_EmptyBodyAndHook(t *testing.T) {
	ctrl := gomock.NewController(t)
	creator := mocks.NewMockRepoCreator(ctrl)
	hook := mocks.NewMockCustomizationHook(ctrl)

	custom := map[string]any{"visibility": "internal"}
	hook.EXPECT().CreateContext(gomock.Any(), gomock.Any()).Return(custom, nil)
	creator.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, in ports.CreateInput) (repo.Result, error) {
			assert.Equal(t, hook, in.Hook)
			assert.Equal(t, custom, in.CustomContext)
			assert.Empty(t, in.Payload)
			assert.Equal(t, repo.EntrypointClient, in.Entrypoint)
			return repo.Result{}, nil
		})

	svc := NewRepoCreationService(RepoCreationServiceOptions{Creator: creator, Hook: WithHook(hook)})
	req := newCreateRequest(nil, nil)
	req.Entrypoint = repo.EntrypointClient
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
}

func TestRepoCreationService_HookFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	creator := mocks.NewMockRepoCreator(ctrl)
	hook := mocks.NewMockCustomizationHook(ctrl)
	hookErr := errors.New("template missing")
	hook.EXPECT().CreateContext(gomock.Any(), gomock.Any()).Return(nil, hookErr)

	sink := &mockauth.RecordingSink{}
	svc := NewRepoCreationService(RepoCreationServiceOptions{
		Creator:   creator,
		Hook:      WithHook(hook),
		Observers: RepoCreationObservers{Telemetry: sink},
	})
	_, err := svc.Create(context.Background(), newCreateRequest(nil, nil))
	assert.Same(t, hookErr, err)

	_, ok := sink.Find(EventRepoCreateFailed)
	assert.True(t, ok)
}

func TestRepoCreationService_FailurePropagatesOriginalError(t *testing.T) {
	ctrl := gomock.NewController(t)
	creator := mocks.NewMockRepoCreator(ctrl)
	downstreamErr := apperrors.Downstream(http.StatusConflict, "repository already exists")
	creator.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, downstreamErr).Times(1)

	sink := &mockauth.RecordingSink{}
	svc := NewRepoCreationService(RepoCreationServiceOptions{
		Creator:   creator,
		Observers: RepoCreationObservers{Telemetry: sink},
	})

	_, err := svc.Create(context.Background(), newCreateRequest(
		map[string]string{"access_token": "secret-token"},
		map[string]any{"name": "widgets", "private": true},
	))
	assert.Same(t, downstreamErr, err)

	failed, ok := sink.Find(EventRepoCreateFailed)
	require.True(t, ok)
	assertNoSecrets(t, failed.Properties)
	assert.Equal(t, "widgets", failed.Properties["name"])
	assert.Equal(t, "true", failed.Properties["private"])
	assert.Equal(t, "repository already exists", failed.Properties["message"])

	var desc errorDescription
	require.NoError(t, json.Unmarshal([]byte(failed.Properties["error"]), &desc))
	assert.Equal(t, http.StatusConflict, desc.Status)
	assert.Equal(t, "downstream", desc.Code)
}

func TestRepoCreationService_UnserializableResultStillSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	creator := mocks.NewMockRepoCreator(ctrl)
	result := repo.Result{"callback": func() {}}
	creator.EXPECT().Create(gomock.Any(), gomock.Any()).Return(result, nil)

	sink := &mockauth.RecordingSink{}
	svc := NewRepoCreationService(RepoCreationServiceOptions{
		Creator:   creator,
		Observers: RepoCreationObservers{Telemetry: sink},
	})
	got, err := svc.Create(context.Background(), newCreateRequest(nil, map[string]any{"name": "x"}))
	require.NoError(t, err)
	assert.Contains(t, got, "callback")

	success, ok := sink.Find(EventRepoCreateSuccess)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(success.Properties["response"], "[unserializable"))
}

type panickingSink struct{}

func (panickingSink) TrackEvent(string, map[string]string) { panic("sink exploded") }

func TestRepoCreationService_TelemetryPanicIsContained(t *testing.T) {
	ctrl := gomock.NewController(t)
	creator := mocks.NewMockRepoCreator(ctrl)
	creator.EXPECT().Create(gomock.Any(), gomock.Any()).Return(repo.Result{"ok": true}, nil)

	svc := NewRepoCreationService(RepoCreationServiceOptions{
		Creator:   creator,
		Observers: RepoCreationObservers{Telemetry: panickingSink{}},
	})
	got, err := svc.Create(context.Background(), newCreateRequest(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, repo.Result{"ok": true}, got)
}

func TestHookOption(t *testing.T) {
	assert.False(t, NoHook().Present())
	assert.False(t, WithHook(nil).Present())

	ctrl := gomock.NewController(t)
	h := mocks.NewMockCustomizationHook(ctrl)
	opt := WithHook(h)
	got, ok := opt.Get()
	assert.True(t, ok)
	assert.Equal(t, h, got)
}

func TestNewRepoCreationService_RequiresCreator(t *testing.T) {
	assert.Panics(t, func() { NewRepoCreationService(RepoCreationServiceOptions{}) })
}
