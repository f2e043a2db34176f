package restapi_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoctl/internal/apiclient"
	"todoctl/internal/backend/restapi"
	"todoctl/internal/service"
	"todoctl/internal/testutil"
)

type fixture struct {
	api    *testutil.FakeAPI
	store  *testutil.MemoryStore
	http   *apiclient.Client
	client *restapi.Client
	userID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	userID, token := api.AddUser("Ada", "ada@example.com", "secret-pass")
	store := testutil.NewMemoryStore(token)

	httpClient, err := apiclient.New(api.URL(), store)
	require.NoError(t, err)

	return &fixture{
		api:    api,
		store:  store,
		http:   httpClient,
		client: restapi.New(httpClient),
		userID: userID,
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestListTasks(t *testing.T) {
	f := newFixture(t)
	f.api.AddTask(f.userID, "Done thing", true)
	f.api.AddTask(f.userID, "Open thing", false)
	f.api.AddTask(f.userID+99, "Someone else's", false)

	tasks, err := f.client.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "Done thing", tasks[0].Title)
	assert.True(t, tasks[0].Completed)
	assert.Equal(t, "Open thing", tasks[1].Title)
	assert.Equal(t, 2024, tasks[0].CreatedAt.Year())
	assert.Equal(t, 2024, tasks[0].UpdatedAt.Year())
}

func TestListTasks_Empty(t *testing.T) {
	f := newFixture(t)

	tasks, err := f.client.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateThenGet_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.client.CreateTask(ctx, "Write report", "quarterly numbers")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := f.client.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, "quarterly numbers", got.Description)
	assert.False(t, got.Completed)
}

func TestCreateTask_SendsRequestFieldNames(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.CreateTask(context.Background(), "Title", "")
	require.NoError(t, err)

	last := f.api.LastRequest()
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "/api/tasks", last.Path)
	assert.Equal(t, map[string]any{"title": "Title", "description": ""}, last.Body)
}

func TestCreateTask_ValidationError(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.CreateTask(context.Background(), "", "desc")

	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, []string{"The title field is required."}, verr.Messages())
}

func TestGetTask_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.GetTask(context.Background(), 404)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGetTask_OtherOwnerIsForbidden(t *testing.T) {
	f := newFixture(t)
	id := f.api.AddTask(f.userID+1, "Not mine", false)

	_, err := f.client.GetTask(context.Background(), id)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestGetTask_EmptyEnvelopeIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.api.FailNext(http.StatusOK, `{"data":null}`)

	_, err := f.client.GetTask(context.Background(), 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateTask_SendsOnlySetFields(t *testing.T) {
	f := newFixture(t)
	id := f.api.AddTask(f.userID, "Keep title", false)

	got, err := f.client.UpdateTask(context.Background(), id, service.TaskPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, "Keep title", got.Title)

	last := f.api.LastRequest()
	assert.Equal(t, http.MethodPut, last.Method)
	assert.Equal(t, map[string]any{"is_completed": true}, last.Body)
}

func TestUpdateTask_FalseAndEmptyAreSent(t *testing.T) {
	f := newFixture(t)
	id := f.api.AddTask(f.userID, "Title", true)

	got, err := f.client.UpdateTask(context.Background(), id, service.TaskPatch{
		Description: strPtr(""),
		Completed:   boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Equal(t, map[string]any{"description": "", "is_completed": false}, f.api.LastRequest().Body)
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	id := f.api.AddTask(f.userID, "Trash", false)

	require.NoError(t, f.client.DeleteTask(context.Background(), id))
	_, ok := f.api.Task(id)
	assert.False(t, ok)

	err := f.client.DeleteTask(context.Background(), id)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUnauthorized_ClearsStoredToken(t *testing.T) {
	f := newFixture(t)
	f.api.RevokeTokens()

	notified := false
	f.http.OnUnauthorized(func() { notified = true })

	_, err := f.client.ListTasks(context.Background())
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	assert.True(t, notified)
	assert.Equal(t, "", f.store.Raw())
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	res, err := f.client.Login(context.Background(), "ada@example.com", "secret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, "Ada", res.User.Name)
}

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.Login(context.Background(), "ada@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestRegister_ValidationOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.Register(context.Background(), service.RegisterInput{
		Name:                 "Bob",
		Email:                "ada@example.com",
		Password:             "short",
		PasswordConfirmation: "other",
	})

	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, []string{
		"The email has already been taken.",
		"The password field must be at least 8 characters.",
		"The password field confirmation does not match.",
	}, verr.Messages())
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	res, err := f.client.Register(context.Background(), service.RegisterInput{
		Name:                 "Bob",
		Email:                "bob@example.com",
		Password:             "long-enough",
		PasswordConfirmation: "long-enough",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "/api/register", f.api.LastRequest().Path)
	assert.Equal(t, "long-enough", f.api.LastRequest().Body["password_confirmation"])
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.client.Logout(context.Background()))

	// The token is revoked server-side now.
	_, err := f.client.ListTasks(context.Background())
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestServerError(t *testing.T) {
	f := newFixture(t)
	f.api.FailNext(http.StatusInternalServerError, `{"message":"Server Error"}`)

	_, err := f.client.ListTasks(context.Background())

	var apiErr *service.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Server Error", apiErr.Message)
}

func TestTransportErrorIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.api.Close()

	_, err := f.client.ListTasks(context.Background())
	assert.ErrorIs(t, err, service.ErrUnavailable)
}
