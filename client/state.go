package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/deanDev5200/web-aspirasi/internal/models"
)

// Snapshot is an immutable view of the last fetched page plus any local
// patches applied since. Callers must not modify Items.
type Snapshot struct {
	Items      []models.Aspirasi
	Pagination models.Pagination
	FetchedAt  time.Time
}

// Filter returns the items whose nama, kelas or aspirasi contain term,
// case-insensitively, newest first. An empty term matches everything.
func (s Snapshot) Filter(term string) []models.Aspirasi {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Aspirasi, 0, len(s.Items))
	for _, a := range s.Items {
		if term == "" ||
			strings.Contains(strings.ToLower(a.Nama), term) ||
			strings.Contains(strings.ToLower(a.Kelas), term) ||
			strings.Contains(strings.ToLower(a.Aspirasi), term) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// SubmissionState holds the admin list. Mutations go to the API first and
// are patched into the snapshot only when the call succeeds; patches stand
// until the next Fetch.
type SubmissionState struct {
	c *Client

	mu   sync.Mutex
	snap Snapshot
	err  error
}

func NewSubmissionState(c *Client) *SubmissionState {
	return &SubmissionState{c: c}
}

func (s *SubmissionState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Err returns the error of the most recent call, or nil.
func (s *SubmissionState) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *SubmissionState) Fetch(ctx context.Context, opts ListOptions) (Snapshot, error) {
	page, err := s.c.List(ctx, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	if err != nil {
		return s.snap, err
	}
	s.snap = Snapshot{Items: page.Data, Pagination: page.Pagination, FetchedAt: time.Now()}
	return s.snap, nil
}

func (s *SubmissionState) Add(ctx context.Context, in NewAspirasi) (Snapshot, error) {
	a, err := s.c.Create(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	if err != nil {
		return s.snap, err
	}
	items := make([]models.Aspirasi, 0, len(s.snap.Items)+1)
	items = append(items, *a)
	items = append(items, s.snap.Items...)
	s.snap = s.snap.with(items, 1)
	return s.snap, nil
}

func (s *SubmissionState) UpdateStatus(ctx context.Context, id string, status models.Status) (Snapshot, error) {
	a, err := s.c.UpdateStatus(ctx, id, status)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	if err != nil {
		return s.snap, err
	}
	items := make([]models.Aspirasi, len(s.snap.Items))
	for i, it := range s.snap.Items {
		if it.ID == id {
			it = *a
		}
		items[i] = it
	}
	s.snap = s.snap.with(items, 0)
	return s.snap, nil
}

func (s *SubmissionState) Delete(ctx context.Context, id string) (Snapshot, error) {
	err := s.c.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	if err != nil {
		return s.snap, err
	}
	items := make([]models.Aspirasi, 0, len(s.snap.Items))
	removed := 0
	for _, it := range s.snap.Items {
		if it.ID == id {
			removed++
			continue
		}
		items = append(items, it)
	}
	s.snap = s.snap.with(items, -removed)
	return s.snap, nil
}

// with returns a copy of s holding items, with the total adjusted by delta.
func (s Snapshot) with(items []models.Aspirasi, delta int) Snapshot {
	s.Items = items
	s.Pagination.Total += delta
	if s.Pagination.Total < 0 {
		s.Pagination.Total = 0
	}
	if s.Pagination.Limit > 0 {
		s.Pagination.Pages = (s.Pagination.Total + s.Pagination.Limit - 1) / s.Pagination.Limit
	}
	return s
}

// AuthState is the admin's logged-in flag, persisted to a small JSON file.
// It never expires; Logout clears it.
type AuthState struct {
	c    *Client
	path string
	mu   sync.Mutex
}

type authFile struct {
	Authenticated bool `json:"isAdminAuthenticated"`
}

func NewAuthState(c *Client, path string) *AuthState {
	return &AuthState{c: c, path: path}
}

func (a *AuthState) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := os.ReadFile(a.path)
	if err != nil {
		return false
	}
	var f authFile
	if err := json.Unmarshal(data, &f); err != nil {
		return false
	}
	return f.Authenticated
}

// Login checks the credentials with the server and sets the flag on success.
func (a *AuthState) Login(ctx context.Context, username, password string) error {
	if err := a.c.Login(ctx, username, password); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	data, err := json.Marshal(authFile{Authenticated: true})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o700); err != nil {
		return fmt.Errorf("auth state: %w", err)
	}
	if err := os.WriteFile(a.path, data, 0o600); err != nil {
		return fmt.Errorf("auth state: %w", err)
	}
	return nil
}

func (a *AuthState) Logout() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := os.Remove(a.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("auth state: %w", err)
	}
	return nil
}
