// Package gdrive mirrors the training-photo store to a Google Drive
// folder so datasets collected on the robot can be pulled into a
// training notebook elsewhere.
package gdrive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/teslashibe/go-jetbot/internal/log"
	"github.com/teslashibe/go-jetbot/pkg/photos"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DefaultFolderName is the Drive folder that receives the mirror.
const DefaultFolderName = "jetbot-training"

// Config configures the Drive client.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "http://localhost:5000/api/gdrive/callback"
	TokenPath    string // Path to store token (default: ~/.jetbot/google_token.json)
	FolderName   string // Drive folder name (default: jetbot-training)
}

// Client handles OAuth2 authentication and Drive API operations.
type Client struct {
	config     *oauth2.Config
	token      *oauth2.Token
	tokenPath  string
	folderName string
	service    *drive.Service

	store *photos.Store

	mu     sync.RWMutex
	logger *slog.Logger
}

// NewClient creates a Drive client for the given photo store.
func NewClient(cfg Config, store *photos.Store) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	}

	if cfg.RedirectURL == "" {
		cfg.RedirectURL = "http://localhost:5000/api/gdrive/callback"
	}

	if cfg.TokenPath == "" {
		homeDir, _ := os.UserHomeDir()
		cfg.TokenPath = filepath.Join(homeDir, ".jetbot", "google_token.json")
	}

	if cfg.FolderName == "" {
		cfg.FolderName = DefaultFolderName
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{drive.DriveFileScope},
		Endpoint:     google.Endpoint,
	}

	client := &Client{
		config:     oauthConfig,
		tokenPath:  cfg.TokenPath,
		folderName: cfg.FolderName,
		store:      store,
		logger:     log.With("component", "gdrive"),
	}

	// Try to load existing token
	if err := client.loadToken(); err == nil {
		if err := client.initService(); err != nil {
			// Token might be expired, will need re-auth
			client.token = nil
		}
	}

	return client, nil
}

// IsAuthenticated returns true if the client has a valid token.
func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != nil && c.token.Valid()
}

// GetAuthURL returns the OAuth2 authorization URL for user consent.
func (c *Client) GetAuthURL() string {
	return c.config.AuthCodeURL("jetbot-state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HandleCallback processes the OAuth2 callback with the authorization code.
func (c *Client) HandleCallback(code string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	token, err := c.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	// Save token for future use
	if err := c.saveToken(); err != nil {
		c.logger.Warn("failed to save token", "err", err)
	}

	if err := c.initService(); err != nil {
		return fmt.Errorf("failed to initialize drive service: %w", err)
	}

	return nil
}

// Disconnect clears the authentication and removes the stored token.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = nil
	c.service = nil

	if err := os.Remove(c.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}

	return nil
}

// SyncAll uploads every local photo that the Drive folder does not have
// yet and returns how many went up. The mirror is one-way: remote
// deletions are not propagated back.
func (c *Client) SyncAll(ctx context.Context) (int, error) {
	c.mu.RLock()
	service := c.service
	c.mu.RUnlock()

	if service == nil {
		return 0, fmt.Errorf("not authenticated - please connect to Google first")
	}

	rootID, err := c.ensureFolder(ctx, service, c.folderName, "")
	if err != nil {
		return 0, err
	}

	uploaded := 0
	for _, side := range photos.Sides {
		folderID, err := c.ensureFolder(ctx, service, side, rootID)
		if err != nil {
			return uploaded, err
		}

		remote, err := c.remoteNames(ctx, service, folderID)
		if err != nil {
			return uploaded, err
		}

		local, err := c.store.List(side)
		if err != nil {
			return uploaded, err
		}

		for _, photo := range local {
			if remote[photo.Name] {
				continue
			}
			if err := c.upload(ctx, service, folderID, side, photo.Name); err != nil {
				return uploaded, err
			}
			uploaded++
		}
	}

	c.logger.Info("drive sync complete", "uploaded", uploaded)
	return uploaded, nil
}

// ensureFolder finds or creates a Drive folder by name under parent.
func (c *Client) ensureFolder(ctx context.Context, service *drive.Service, name, parent string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", name, folderMimeType)
	if parent != "" {
		query += fmt.Sprintf(" and '%s' in parents", parent)
	}

	list, err := service.Files.List().Q(query).Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gdrive: find folder %s: %w", name, err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	folder := &drive.File{Name: name, MimeType: folderMimeType}
	if parent != "" {
		folder.Parents = []string{parent}
	}
	created, err := service.Files.Create(folder).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gdrive: create folder %s: %w", name, err)
	}
	c.logger.Info("created drive folder", "name", name, "id", created.Id)
	return created.Id, nil
}

// remoteNames lists the filenames already present in a Drive folder.
func (c *Client) remoteNames(ctx context.Context, service *drive.Service, folderID string) (map[string]bool, error) {
	names := make(map[string]bool)
	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)

	pageToken := ""
	for {
		call := service.Files.List().Q(query).Fields("nextPageToken, files(name)").PageSize(1000).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("gdrive: list folder: %w", err)
		}
		for _, f := range list.Files {
			names[f.Name] = true
		}
		if list.NextPageToken == "" {
			return names, nil
		}
		pageToken = list.NextPageToken
	}
}

// upload pushes one local photo into a Drive folder.
func (c *Client) upload(ctx context.Context, service *drive.Service, folderID, side, name string) error {
	path, err := c.store.Path(side, name)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("gdrive: open %s: %w", name, err)
	}
	defer f.Close()

	meta := &drive.File{Name: name, Parents: []string{folderID}}
	if _, err := service.Files.Create(meta).Media(f).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gdrive: upload %s: %w", name, err)
	}
	c.logger.Debug("uploaded photo", "side", side, "name", name)
	return nil
}

// initService initializes the Drive service with the current token.
func (c *Client) initService() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return fmt.Errorf("no token available")
	}

	ctx := context.Background()
	httpClient := c.config.Client(ctx, c.token)

	service, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return fmt.Errorf("failed to create drive service: %w", err)
	}

	c.service = service
	return nil
}

// loadToken loads the OAuth token from disk.
func (c *Client) loadToken() error {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return err
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return err
	}

	c.mu.Lock()
	c.token = &token
	c.mu.Unlock()

	return nil
}

// saveToken saves the OAuth token to disk.
func (c *Client) saveToken() error {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token == nil {
		return fmt.Errorf("no token to save")
	}

	// Ensure directory exists
	dir := filepath.Dir(c.tokenPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.tokenPath, data, 0600)
}

// Status returns the current connection status.
type Status struct {
	Connected bool   `json:"connected"`
	AuthURL   string `json:"auth_url,omitempty"`
}

// GetStatus returns the current Drive connection status.
func (c *Client) GetStatus() Status {
	status := Status{
		Connected: c.IsAuthenticated(),
	}

	if !status.Connected {
		status.AuthURL = c.GetAuthURL()
	}

	return status
}
