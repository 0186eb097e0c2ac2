package bundles

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	progressByteStep = 64 * 1024
	progressMinDelay = 200 * time.Millisecond
)

// bundleExtensions are the artifact entries searched for inside a CI archive
var bundleExtensions = []string{".rvp", ".mpp", ".arp"}

// PullRequestBundle follows the CI artifact of a GitHub pull request
type PullRequestBundle struct {
	sourceCore
	remoteCore
}

func (b *PullRequestBundle) withCore(c sourceCore) Source {
	cp := *b
	cp.sourceCore = c
	return &cp
}

func (b *PullRequestBundle) withRemote(r remoteCore) Remote {
	cp := *b
	cp.remoteCore = r
	return &cp
}

func (b *PullRequestBundle) latestInfo(ctx context.Context) (ReleaseInfo, error) {
	if b.deps == nil || b.deps.PullRequests == nil {
		return ReleaseInfo{}, fmt.Errorf("no pull request API configured")
	}
	owner, repo, number, err := ParsePullRequestURL(b.endpoint)
	if err != nil {
		return ReleaseInfo{}, err
	}
	return b.deps.PullRequests.PullRequestArtifact(ctx, owner, repo, number)
}

// download fetches the CI archive with the user's token and extracts the first
// bundle entry found in it
func (b *PullRequestBundle) download(ctx context.Context, info ReleaseInfo, onProgress ProgressFunc) (*DownloadResult, error) {
	if b.deps == nil || b.deps.HTTP == nil {
		return nil, fmt.Errorf("no HTTP client configured")
	}
	token := ""
	if b.deps.Prefs != nil {
		token = strings.TrimSpace(b.deps.Prefs.GitHubToken())
	}
	if token == "" {
		return nil, ErrTokenRequired
	}
	if strings.TrimSpace(info.DownloadURL) == "" {
		return nil, ErrNoArtifactURL
	}

	if err := os.MkdirAll(b.dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create bundle directory: %w", err)
	}
	archive, err := os.CreateTemp(b.dir, ".artifact-*.zip")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary archive: %w", err)
	}
	defer func() {
		_ = archive.Close()
		_ = os.Remove(archive.Name())
	}()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	size, err := b.deps.HTTP.Download(ctx, info.DownloadURL, header, archive, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download pull request artifact: %w", err)
	}

	_, err = writeArtifact(b.ArtifactPath(), func(w io.Writer) (int64, error) {
		return extractBundleEntry(archive, size, w, onProgress)
	})
	if err != nil {
		return nil, err
	}
	return resultFor(info), nil
}

// FetchLatestReleaseInfo implements Remote
func (b *PullRequestBundle) FetchLatestReleaseInfo(ctx context.Context) (ReleaseInfo, error) {
	return fetchLatest(ctx, b)
}

// Update implements Remote
func (b *PullRequestBundle) Update(ctx context.Context, onProgress ProgressFunc) (*DownloadResult, error) {
	return runUpdate(ctx, b, onProgress)
}

// DownloadLatest implements Remote
func (b *PullRequestBundle) DownloadLatest(ctx context.Context, onProgress ProgressFunc) (*DownloadResult, error) {
	info, err := b.FetchLatestReleaseInfo(ctx)
	if err != nil {
		return nil, err
	}
	return b.download(ctx, info, onProgress)
}

func extractBundleEntry(archive io.ReaderAt, size int64, dst io.Writer, onProgress ProgressFunc) (int64, error) {
	zr, err := zip.NewReader(archive, size)
	if err != nil {
		return 0, fmt.Errorf("failed to open pull request artifact: %w", err)
	}

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || !hasBundleExtension(entry.Name) {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return 0, fmt.Errorf("failed to open %s: %w", entry.Name, err)
		}
		total := int64(entry.UncompressedSize64)
		n, err := copyWithProgress(dst, rc, total, throttle(onProgress))
		_ = rc.Close()
		if err != nil {
			return n, fmt.Errorf("failed to extract %s: %w", entry.Name, err)
		}
		if onProgress != nil {
			if err := onProgress(n, total); err != nil {
				return n, err
			}
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: no .rvp, .mpp, or .arp file found in the pull request artifact", ErrEmptyArtifact)
}

func hasBundleExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range bundleExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func copyWithProgress(dst io.Writer, src io.Reader, total int64, onProgress ProgressFunc) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
			if onProgress != nil {
				if err := onProgress(written, total); err != nil {
					return written, err
				}
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// throttle forwards progress at most every 64 KiB or 200 ms
func throttle(onProgress ProgressFunc) ProgressFunc {
	if onProgress == nil {
		return nil
	}
	var lastBytes int64
	var lastAt time.Time
	return func(read, total int64) error {
		now := time.Now()
		if read-lastBytes < progressByteStep && now.Sub(lastAt) < progressMinDelay {
			return nil
		}
		lastBytes, lastAt = read, now
		return onProgress(read, total)
	}
}
