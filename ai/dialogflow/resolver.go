package dialogflow

import (
	"InstaFlow/internal/lib/sl"
	"context"
	"errors"
	"fmt"
	"golang.org/x/oauth2/google"
	df "google.golang.org/api/dialogflow/v2"
	"google.golang.org/api/option"
	"log/slog"
	"os"
)

const defaultLanguageCode = "en"

// Resolver sends text to one Dialogflow ES agent session. The session path is
// fixed at construction and shared by every call.
type Resolver struct {
	service      *df.Service
	sessionPath  string
	languageCode string
	log          *slog.Logger
}

type Options struct {
	ProjectID       string
	SessionID       string
	LanguageCode    string
	CredentialsFile string
	// Endpoint overrides the API base URL; empty means Google's default.
	Endpoint string
	// ClientOptions are appended last, after credentials and endpoint.
	ClientOptions []option.ClientOption
}

func SessionPath(projectID, sessionID string) string {
	return fmt.Sprintf("projects/%s/agent/sessions/%s", projectID, sessionID)
}

func NewResolver(ctx context.Context, opts Options, logger *slog.Logger) (*Resolver, error) {
	if opts.ProjectID == "" {
		return nil, errors.New("dialogflow: project id must not be empty")
	}
	if opts.SessionID == "" {
		return nil, errors.New("dialogflow: session id must not be empty")
	}
	if opts.LanguageCode == "" {
		opts.LanguageCode = defaultLanguageCode
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("dialogflow: read credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, df.CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("dialogflow: parse credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithTokenSource(creds.TokenSource))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	service, err := df.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("dialogflow: create service: %w", err)
	}

	return &Resolver{
		service:      service,
		sessionPath:  SessionPath(opts.ProjectID, opts.SessionID),
		languageCode: opts.LanguageCode,
		log:          logger.With(sl.Module("dialogflow")),
	}, nil
}

// DetectIntent returns the fulfillment text for text. Errors are not retried.
func (r *Resolver) DetectIntent(ctx context.Context, text string) (string, error) {
	req := &df.GoogleCloudDialogflowV2DetectIntentRequest{
		QueryInput: &df.GoogleCloudDialogflowV2QueryInput{
			Text: &df.GoogleCloudDialogflowV2TextInput{
				Text:         text,
				LanguageCode: r.languageCode,
			},
		},
	}

	resp, err := r.service.Projects.Agent.Sessions.DetectIntent(r.sessionPath, req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("dialogflow: detect intent: %w", err)
	}
	if resp.QueryResult == nil {
		return "", errors.New("dialogflow: response has no query result")
	}

	r.log.With(
		slog.String("intent", intentName(resp.QueryResult)),
		slog.Float64("confidence", resp.QueryResult.IntentDetectionConfidence),
	).Debug("intent detected")

	return resp.QueryResult.FulfillmentText, nil
}

func (r *Resolver) SessionPath() string {
	return r.sessionPath
}

func intentName(result *df.GoogleCloudDialogflowV2QueryResult) string {
	if result.Intent == nil {
		return ""
	}
	return result.Intent.DisplayName
}
