package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"trend-shorts-agent/internal/config"
	"trend-shorts-agent/internal/types"
)

// ErrNoVideoID is returned when the API accepts the upload but returns no id
var ErrNoVideoID = errors.New("YouTube API did not return a video ID")

// Result identifies the published video
type Result struct {
	VideoID string `json:"videoId"`
	URL     string `json:"url"`
}

// Uploader handles YouTube video upload via Data API v3
type Uploader struct {
	cfg      *config.Config
	log      *slog.Logger
	endpoint oauth2.Endpoint
	opts     []option.ClientOption
}

// New creates a new Uploader. Extra client options are appended after the
// OAuth client, tests use them to point at a fake endpoint.
func New(cfg *config.Config, log *slog.Logger, opts ...option.ClientOption) *Uploader {
	return &Uploader{cfg: cfg, log: log.With("component", "upload"), endpoint: google.Endpoint, opts: opts}
}

// Publish uploads videoFile with metadata derived from plan and topic
func (u *Uploader) Publish(ctx context.Context, videoFile string, plan *types.VideoPlan, topic *types.TrendTopic) (Result, error) {
	meta := BuildMetadata(plan, topic, u.cfg.Upload)

	client, err := u.oauthClient(ctx)
	if err != nil {
		return Result{}, err
	}
	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, u.opts...)...)
	if err != nil {
		return Result{}, fmt.Errorf("youtube service: %w", err)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           meta.CategoryID,
			DefaultLanguage:      meta.DefaultLanguage,
			DefaultAudioLanguage: meta.DefaultLanguage,
		},
		// always declared as not made for kids
		Status: &youtube.VideoStatus{
			PrivacyStatus:           meta.Privacy,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return Result{}, fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()
	if fi, err := f.Stat(); err == nil {
		u.log.Info("[upload] uploading", "title", meta.Title, "privacy", meta.Privacy, "mb", fmt.Sprintf("%.1f", float64(fi.Size())/1024/1024))
	}

	// ChunkSize(0) sends the whole file in one request
	call := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(f, googleapi.ChunkSize(0))
	uploaded, err := call.Context(ctx).Do()
	if err != nil {
		return Result{}, fmt.Errorf("youtube upload: %w", err)
	}
	if uploaded == nil || uploaded.Id == "" {
		return Result{}, ErrNoVideoID
	}

	res := Result{VideoID: uploaded.Id, URL: "https://www.youtube.com/watch?v=" + uploaded.Id}
	u.log.Info("[upload] ✅ uploaded", "video_id", res.VideoID, "url", res.URL)
	return res, nil
}

// oauthClient builds an HTTP client that refreshes the stored offline token
func (u *Uploader) oauthClient(ctx context.Context) (*http.Client, error) {
	const reason = "YouTube upload"
	clientID, err := u.cfg.Require(config.EnvGoogleClientID, reason)
	if err != nil {
		return nil, err
	}
	clientSecret, err := u.cfg.Require(config.EnvGoogleClientSecret, reason)
	if err != nil {
		return nil, err
	}
	refreshToken, err := u.cfg.Require(config.EnvGoogleRefreshToken, reason)
	if err != nil {
		return nil, err
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     u.endpoint,
		RedirectURL:  u.cfg.Upload.RedirectURI,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	return conf.Client(ctx, token), nil
}
