package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DefaultBaseURL is the Hugging Face hub root.
const DefaultBaseURL = "https://huggingface.co"

// LockFileName is written into the output directory after a download.
const LockFileName = "download-manifest.lock.json"

// DownloadOptions configures Download.
type DownloadOptions struct {
	Manifest Manifest
	OutDir   string
	HFToken  string
	// BaseURL overrides DefaultBaseURL.
	BaseURL string
	Client  *http.Client
	Stdout  io.Writer
}

// ErrAccessDenied reports a 401 or 403 from the hub.
type ErrAccessDenied struct {
	Repo string
}

func (e *ErrAccessDenied) Error() string {
	return fmt.Sprintf("access denied for %s; provide HF_TOKEN or --hf-token", e.Repo)
}

type lockManifest struct {
	Repo      string                `json:"repo"`
	Generated string                `json:"generated"`
	Files     map[string]lockRecord `json:"files"`
}

type lockRecord struct {
	Revision string `json:"revision"`
	SHA256   string `json:"sha256"`
}

var shaHexPattern = regexp.MustCompile(`(?i)^[a-f0-9]{64}$`)

type downloader struct {
	client  *http.Client
	baseURL string
	repo    string
	token   string
	out     io.Writer
}

// Download fetches every manifest file into OutDir, verifying sha256
// checksums. Files already present with a matching checksum are skipped.
// Checksums resolved from the hub are recorded in LockFileName so later
// runs work offline.
func Download(ctx context.Context, opts DownloadOptions) error {
	m := opts.Manifest
	if err := m.Validate(); err != nil {
		return err
	}

	if opts.OutDir == "" {
		return errors.New("out dir is required")
	}

	d := &downloader{
		client:  opts.Client,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		repo:    m.Repo,
		token:   opts.HFToken,
		out:     opts.Stdout,
	}
	if d.client == nil {
		d.client = &http.Client{}
	}
	if d.baseURL == "" {
		d.baseURL = DefaultBaseURL
	}
	if d.out == nil {
		d.out = io.Discard
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}

	lockPath := filepath.Join(opts.OutDir, LockFileName)
	lock := readLockManifest(lockPath)
	lock.Repo = m.Repo
	lock.Generated = time.Now().UTC().Format(time.RFC3339)

	for _, f := range m.Files {
		sum, err := d.fetch(ctx, f, lock.Files[f.Filename], opts.OutDir)
		if err != nil {
			return err
		}
		lock.Files[f.Filename] = lockRecord{Revision: f.Revision, SHA256: sum}
	}

	if err := writeLockManifest(lockPath, lock); err != nil {
		return err
	}

	fmt.Fprintf(d.out, "wrote lock manifest: %s\n", lockPath)

	return nil
}

// fetch makes sure one file is present with the expected checksum and
// returns that checksum.
func (d *downloader) fetch(ctx context.Context, f ModelFile, locked lockRecord, outDir string) (string, error) {
	expected := strings.ToLower(f.SHA256)
	if expected == "" && locked.Revision == f.Revision && isSHA256Hex(locked.SHA256) {
		expected = strings.ToLower(locked.SHA256)
	}

	if expected == "" {
		var err error
		if expected, err = d.remoteChecksum(ctx, f); err != nil {
			return "", err
		}
	}

	localPath := filepath.Join(outDir, filepath.FromSlash(f.Filename))
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", fmt.Errorf("create local subdir: %w", err)
	}

	ok, err := existingMatches(localPath, expected)
	if err != nil {
		return "", err
	}
	if ok {
		fmt.Fprintf(d.out, "skip %s (checksum match)\n", f.Filename)
		return expected, nil
	}

	fmt.Fprintf(d.out, "download %s@%s -> %s\n", f.Filename, f.Revision, localPath)

	actual, err := d.get(ctx, f, localPath)
	if err != nil {
		return "", err
	}

	if actual != expected {
		_ = os.Remove(localPath)
		return "", fmt.Errorf("checksum mismatch for %s: expected %s got %s", f.Filename, expected, actual)
	}

	fmt.Fprintf(d.out, "verified %s (sha256=%s)\n", f.Filename, actual)

	return expected, nil
}

// get streams the file through a temp file and returns its sha256.
func (d *downloader) get(ctx context.Context, f ModelFile, outPath string) (string, error) {
	resp, err := d.do(ctx, http.MethodGet, f)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	tmp := outPath + ".tmp"
	fh, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	h := sha256.New()
	progress := &progressWriter{out: d.out, total: resp.ContentLength, last: time.Now()}

	_, err = io.Copy(io.MultiWriter(fh, h, progress), resp.Body)
	if closeErr := fh.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("download %s: %w", f.Filename, err)
	}

	if err := os.Rename(tmp, outPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("move temp file into place: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// remoteChecksum reads the LFS sha256 the hub exposes as an ETag.
func (d *downloader) remoteChecksum(ctx context.Context, f ModelFile) (string, error) {
	resp, err := d.do(ctx, http.MethodHead, f)
	if err != nil {
		return "", err
	}
	resp.Body.Close()

	for _, key := range []string{"X-Linked-Etag", "X-Repo-Commit", "Etag"} {
		if v := normalizeETag(resp.Header.Get(key)); isSHA256Hex(v) {
			return strings.ToLower(v), nil
		}
	}

	return "", fmt.Errorf("unable to resolve sha256 metadata for %s; pin a checksum in the manifest", f.Filename)
}

func (d *downloader) do(ctx context.Context, method string, f ModelFile) (*http.Response, error) {
	url := fmt.Sprintf("%s/%s/resolve/%s/%s", d.baseURL, d.repo, f.Revision, f.Filename)

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, f.Filename, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, &ErrAccessDenied{Repo: d.repo}
	case resp.StatusCode < 200 || resp.StatusCode > 399:
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %s", method, f.Filename, resp.Status)
	}

	return resp, nil
}

// progressWriter prints a progress line at most every 700ms.
type progressWriter struct {
	out     io.Writer
	total   int64
	written int64
	last    time.Time
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if time.Since(p.last) < 700*time.Millisecond {
		return len(b), nil
	}
	p.last = time.Now()

	if p.total > 0 {
		fmt.Fprintf(p.out, "  progress: %.1f%% (%d/%d bytes)\n", float64(p.written)*100/float64(p.total), p.written, p.total)
	} else {
		fmt.Fprintf(p.out, "  progress: %d bytes\n", p.written)
	}

	return len(b), nil
}

func existingMatches(path, expected string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat existing file: %w", err)
	}
	if fi.IsDir() {
		return false, fmt.Errorf("expected file at %s, found directory", path)
	}
	actual, err := fileSHA256(path)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}

func normalizeETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, "\"")
}

func isSHA256Hex(v string) bool {
	return shaHexPattern.MatchString(v)
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read file for checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// readLockManifest returns an empty lock when the file is absent or invalid.
func readLockManifest(path string) lockManifest {
	out := lockManifest{Files: map[string]lockRecord{}}

	b, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(b, &out); err != nil || out.Files == nil {
		return lockManifest{Files: map[string]lockRecord{}}
	}
	return out
}

func writeLockManifest(path string, lock lockManifest) error {
	b, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return fmt.Errorf("encode lock manifest: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write lock manifest: %w", err)
	}
	return nil
}
