package cli

import (
	"context"
	"log/slog"

	"todoctl/internal/apiclient"
	"todoctl/internal/backend/restapi"
	"todoctl/internal/commands"
	"todoctl/internal/config"
	"todoctl/internal/session"
	"todoctl/internal/storage"
)

// RESTFactory wires the REST backend: the token file, the shared API client
// and a session store subscribed to the client's 401 notifications.
func RESTFactory(ctx context.Context, cfg *config.Config, log *slog.Logger) (commands.Deps, func(), error) {
	store := storage.NewFileStore(cfg.TokenPath())

	client, err := apiclient.New(cfg.APIURL, store,
		apiclient.WithTimeout(cfg.Timeout),
		apiclient.WithLogger(log),
	)
	if err != nil {
		return commands.Deps{}, nil, err
	}
	backend := restapi.New(client)

	sess := session.New(store, client, client,
		session.WithLogger(log),
		session.WithRemote(backend),
	)

	deps := commands.Deps{
		Session: sess,
		Tasks:   backend,
		Auth:    backend,
		Log:     log,
	}
	return deps, sess.Close, nil
}
