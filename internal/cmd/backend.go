package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cardtrack/cardtrack/internal/cmd/common"
	"github.com/cardtrack/cardtrack/internal/draft"
	"github.com/cardtrack/cardtrack/internal/httpclient"
	"github.com/cardtrack/cardtrack/internal/tracker"
)

// TrackerClient builds the backend client for the configured base URL.
// Requests are logged at trace level through the command's logger.
func TrackerClient(helper Helper) (*tracker.Client, error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return nil, err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return nil, err
	}
	client, err := tracker.NewClient(cfg.GetString(common.BaseURLConfigPath), httpclient.NewLoggingHTTPClient(logger))
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	return client, nil
}

// DraftStore opens the submission draft file of the active profile.
func DraftStore(helper Helper) (*draft.Store, error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return nil, err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return nil, err
	}
	path := strings.TrimSpace(cfg.GetString(common.DraftPathConfigPath))
	if path == "" {
		return nil, &ConfigurationError{Err: fmt.Errorf("no draft file configured (%s)", common.DraftPathConfigPath)}
	}
	return draft.NewStore(path, logger), nil
}

// LookupQuery is the query the item browser opens with.
func LookupQuery(helper Helper) (url.Values, error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return nil, err
	}
	raw := strings.TrimPrefix(strings.TrimSpace(cfg.GetString(common.LookupQueryConfigPath)), "?")
	q, err := url.ParseQuery(raw)
	if err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("invalid %s: %w", common.LookupQueryConfigPath, err)}
	}
	return q, nil
}
