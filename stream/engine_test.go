package stream

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vodstream/jit-api/catalog"
	"github.com/vodstream/jit-api/config"
	"github.com/vodstream/jit-api/playlist"
	"github.com/vodstream/jit-api/transcode"
	"github.com/vodstream/jit-api/video"
)

const testMediaID = "0a1b2c3d4e5f"

type fakeLibrary map[string]catalog.MediaInfo

func (l fakeLibrary) FindMedia(mediaID string) (catalog.MediaInfo, error) {
	info, ok := l[mediaID]
	if !ok {
		return catalog.MediaInfo{}, catalog.ErrNotFound
	}
	return info, nil
}

type fakeProber struct {
	mu           sync.Mutex
	analyzeCalls int
	analysis     video.MediaAnalysis
	keyframes    []video.Keyframe
	keyframeErr  error
}

func (p *fakeProber) Analyze(requestID string, path string) (video.MediaAnalysis, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.analyzeCalls++
	return p.analysis, nil
}

func (p *fakeProber) AnalyzeKeyframes(requestID string, path string) ([]video.Keyframe, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.keyframeErr != nil {
		return nil, p.keyframeErr
	}
	return p.keyframes, nil
}

func (p *fakeProber) analyzed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.analyzeCalls
}

// fakeTranscoder writes a placeholder segment file instead of running an
// encoder. started and block, when set, let tests hold a transcode in flight.
type fakeTranscoder struct {
	mu      sync.Mutex
	calls   []transcode.TranscodeJob
	started chan transcode.TranscodeJob
	block   chan struct{}
	fail    func(job transcode.TranscodeJob) error
}

func (f *fakeTranscoder) Transcode(requestID string, job transcode.TranscodeJob) error {
	f.mu.Lock()
	f.calls = append(f.calls, job)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- job
	}
	if f.block != nil {
		<-f.block
	}
	if f.fail != nil {
		if err := f.fail(job); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(job.OutputPath, []byte("mpegts"), 0644)
}

func (f *fakeTranscoder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTranscoder) jobAt(i int) transcode.TranscodeJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func (f *fakeTranscoder) backends() []transcode.Backend {
	f.mu.Lock()
	defer f.mu.Unlock()
	backends := make([]transcode.Backend, 0, len(f.calls))
	for _, call := range f.calls {
		backends = append(backends, call.Backend)
	}
	return backends
}

func keyframesEvery(interval, duration float64) []video.Keyframe {
	keyframes := []video.Keyframe{}
	for i, pts := 0, 0.0; pts < duration; i, pts = i+1, pts+interval {
		keyframes = append(keyframes, video.Keyframe{Index: i, PTS: pts})
	}
	return keyframes
}

// newTestEngine builds an engine over a 30 second 1080p fixture with a
// keyframe every 2 seconds, so the 6 second target yields 5 exact segments.
func newTestEngine(t *testing.T, transcoder SegmentTranscoder, tweak func(*config.Cli)) (*Engine, *fakeProber) {
	t.Helper()
	cli := &config.Cli{
		MediaDir:               t.TempDir(),
		HLSTempDir:             t.TempDir(),
		EncoderMode:            config.EncoderModeCPU,
		PrefetchCount:          2,
		MaxConcurrentPrefetch:  4,
		SegmentDurationSeconds: 6,
		FFmpegPath:             "ffmpeg",
		FFprobePath:            "ffprobe",
	}
	if tweak != nil {
		tweak(cli)
	}
	prober := &fakeProber{
		analysis: video.MediaAnalysis{
			Duration:            30,
			VideoCodec:          "hevc",
			AudioCodec:          "aac",
			Width:               1920,
			Height:              1080,
			FPS:                 24,
			SegmentDuration:     cli.SegmentDuration(),
			NeedsVideoTranscode: true,
			HasAudio:            true,
		},
		keyframes: keyframesEvery(2, 30),
	}
	library := fakeLibrary{testMediaID: catalog.MediaInfo{
		ID:      testMediaID,
		Path:    filepath.Join(cli.MediaDir, "movie.mp4"),
		RelPath: "movie.mp4",
	}}
	return NewStubEngine(cli, library, prober, transcoder, nil), prober
}

func TestInitializeStreamingWritesPlaylists(t *testing.T) {
	engine, prober := newTestEngine(t, &fakeTranscoder{}, nil)

	masterPath, err := engine.InitializeStreaming("req1", testMediaID)
	require.NoError(t, err)
	require.FileExists(t, masterPath)

	metadata, ok := engine.MetadataFor(testMediaID)
	require.True(t, ok)
	require.Equal(t, 5, metadata.TotalSegments)
	require.Equal(t, video.SegmentModeAccurate, metadata.SegmentMode)
	require.Equal(t, "1080p", metadata.AvailableProfiles[0].Name)
	for _, profile := range metadata.AvailableProfiles {
		require.FileExists(t, playlist.VariantPath(engine.cli.HLSTempDir, testMediaID, profile.Name))
	}

	// Repeat calls serve the cached plan without re-probing.
	again, err := engine.InitializeStreaming("req2", testMediaID)
	require.NoError(t, err)
	require.Equal(t, masterPath, again)
	require.Equal(t, 1, prober.analyzed())
}

func TestInitializeStreamingUnknownMedia(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeTranscoder{}, nil)

	_, err := engine.InitializeStreaming("req1", "feedfacecafe")
	require.ErrorIs(t, err, ErrMediaNotFound)
}

func TestInitializeStreamingProbesOnceUnderConcurrency(t *testing.T) {
	engine, prober := newTestEngine(t, &fakeTranscoder{}, nil)

	const callers = 8
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := engine.InitializeStreaming("req", testMediaID)
			errs <- err
		}()
	}
	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
	}
	require.Equal(t, 1, prober.analyzed())
}

func TestInitializeStreamingFallsBackToApproximateSegments(t *testing.T) {
	trans := &fakeTranscoder{}
	engine, prober := newTestEngine(t, trans, nil)
	prober.keyframeErr = video.ErrNoKeyframes

	_, err := engine.InitializeStreaming("req1", testMediaID)
	require.NoError(t, err)

	metadata, ok := engine.MetadataFor(testMediaID)
	require.True(t, ok)
	require.Equal(t, video.SegmentModeApproximate, metadata.SegmentMode)
	require.Equal(t, 5, metadata.TotalSegments)
	require.Empty(t, metadata.Keyframes)
}

func TestVariantPlaylistPath(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeTranscoder{}, nil)

	path, err := engine.VariantPlaylistPath("req1", testMediaID, "720p")
	require.NoError(t, err)
	require.FileExists(t, path)

	_, err = engine.VariantPlaylistPath("req1", testMediaID, "4k")
	require.ErrorIs(t, err, ErrUnknownQuality)
}

func TestGetSegmentTranscodesOnMissThenServesFromCache(t *testing.T) {
	trans := &fakeTranscoder{}
	engine, _ := newTestEngine(t, trans, nil)

	path, err := engine.GetSegment("req1", testMediaID, "720p", "segment_002.ts")
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, 1, trans.callCount())

	job := trans.jobAt(0)
	require.Equal(t, 2, job.Segment.SegmentNumber)
	require.Equal(t, 12.0, job.Segment.StartTime)
	require.Equal(t, "720p", job.Profile.Name)
	require.Equal(t, transcode.BackendCPU, job.Backend)

	// The same request again is a pure cache hit.
	again, err := engine.GetSegment("req2", testMediaID, "720p", "segment_002.ts")
	require.NoError(t, err)
	require.Equal(t, path, again)
	require.Equal(t, 1, trans.callCount())
}

func TestGetSegmentRejectsBadRequests(t *testing.T) {
	trans := &fakeTranscoder{}
	engine, _ := newTestEngine(t, trans, nil)

	tests := []struct {
		name        string
		mediaID     string
		quality     string
		segmentFile string
		expectedErr error
	}{
		{"unknown media", "feedfacecafe", "720p", "segment_000.ts", ErrMediaNotFound},
		{"bad file name", testMediaID, "720p", "segment_abc.ts", ErrBadSegmentName},
		{"path traversal", testMediaID, "720p", "../../../etc/passwd", ErrBadSegmentName},
		{"out of range", testMediaID, "720p", "segment_099.ts", ErrSegmentOutOfRange},
		{"unknown quality", testMediaID, "4k", "segment_000.ts", ErrUnknownQuality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.GetSegment("req1", tt.mediaID, tt.quality, tt.segmentFile)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
	require.Equal(t, 0, trans.callCount())
}

func TestBadSegmentNameRejectedBeforeInit(t *testing.T) {
	trans := &fakeTranscoder{}
	engine, prober := newTestEngine(t, trans, nil)

	_, err := engine.GetSegment("req1", testMediaID, "720p", "clip.mp4")
	require.ErrorIs(t, err, ErrBadSegmentName)

	// The malformed request must not probe, write playlists or touch the
	// cache tree.
	require.Equal(t, 0, prober.analyzed())
	require.NoDirExists(t, playlist.MediaDir(engine.cli.HLSTempDir, testMediaID))
}

func TestGetSegmentCoalescesConcurrentRequests(t *testing.T) {
	trans := &fakeTranscoder{
		started: make(chan transcode.TranscodeJob, 1),
		block:   make(chan struct{}),
	}
	engine, _ := newTestEngine(t, trans, nil)
	_, err := engine.InitializeStreaming("req0", testMediaID)
	require.NoError(t, err)

	const waiters = 5
	type result struct {
		path string
		err  error
	}
	results := make(chan result, waiters)
	for i := 0; i < waiters; i++ {
		go func(i int) {
			path, err := engine.GetSegment(fmt.Sprintf("req%d", i), testMediaID, "720p", "segment_001.ts")
			results <- result{path, err}
		}(i)
	}

	<-trans.started
	close(trans.block)

	paths := map[string]bool{}
	for i := 0; i < waiters; i++ {
		res := <-results
		require.NoError(t, res.err)
		paths[res.path] = true
	}
	require.Len(t, paths, 1)
	require.Equal(t, 1, trans.callCount())
}

func TestGetSegmentFallsBackThroughEncoderChain(t *testing.T) {
	trans := &fakeTranscoder{
		fail: func(job transcode.TranscodeJob) error {
			if job.Backend != transcode.BackendCPU {
				return &transcode.BackendError{
					Backend: job.Backend,
					Reason:  transcode.FailureNoDevice,
					Err:     errors.New("no such device"),
				}
			}
			return nil
		},
	}
	engine, _ := newTestEngine(t, trans, func(cli *config.Cli) {
		cli.EncoderMode = config.EncoderModeAuto
	})

	_, err := engine.GetSegment("req1", testMediaID, "720p", "segment_000.ts")
	require.NoError(t, err)
	require.Equal(t,
		[]transcode.Backend{transcode.BackendNVIDIA, transcode.BackendIntel, transcode.BackendCPU},
		trans.backends())
	require.Equal(t, transcode.BackendCPU, engine.EncoderBackend())

	// The working backend is remembered, so the next segment skips the
	// accelerators that already failed.
	_, err = engine.GetSegment("req2", testMediaID, "720p", "segment_001.ts")
	require.NoError(t, err)
	require.Equal(t, 4, trans.callCount())
	require.Equal(t, transcode.BackendCPU, trans.jobAt(3).Backend)
}

func TestGetSegmentFailsWhenEveryBackendFails(t *testing.T) {
	trans := &fakeTranscoder{
		fail: func(job transcode.TranscodeJob) error {
			return &transcode.BackendError{
				Backend: job.Backend,
				Reason:  transcode.FailureExit,
				Err:     errors.New("encoder crashed"),
			}
		},
	}
	engine, _ := newTestEngine(t, trans, func(cli *config.Cli) {
		cli.EncoderMode = config.EncoderModeAuto
	})

	_, err := engine.GetSegment("req1", testMediaID, "720p", "segment_000.ts")
	require.ErrorIs(t, err, ErrTranscodeFailed)
	require.Equal(t, 3, trans.callCount())
	require.Equal(t, transcode.Backend(""), engine.EncoderBackend())
	require.NoFileExists(t, playlist.SegmentPath(engine.cli.HLSTempDir, testMediaID, "720p", "segment_000.ts"))
}

func TestPrefetchProducesFollowingSegments(t *testing.T) {
	trans := &fakeTranscoder{}
	engine, _ := newTestEngine(t, trans, func(cli *config.Cli) {
		cli.PrefetchEnabled = true
		cli.PrefetchCount = 2
	})

	_, err := engine.GetSegment("req1", testMediaID, "720p", "segment_000.ts")
	require.NoError(t, err)

	for _, name := range []string{"segment_001.ts", "segment_002.ts"} {
		segPath := playlist.SegmentPath(engine.cli.HLSTempDir, testMediaID, "720p", name)
		require.Eventually(t, func() bool { return fileExists(segPath) }, 2*time.Second, 10*time.Millisecond)
	}
	require.Eventually(t, func() bool { return engine.jobs.ActiveCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 3, trans.callCount())
}

func TestPrefetchStopsAtCachedSegment(t *testing.T) {
	trans := &fakeTranscoder{}
	engine, _ := newTestEngine(t, trans, func(cli *config.Cli) {
		cli.PrefetchEnabled = true
		cli.PrefetchCount = 3
	})
	_, err := engine.InitializeStreaming("req0", testMediaID)
	require.NoError(t, err)

	// Segment 1 is already cached, so the prefetch walk stops there and
	// leaves segment 2 for the request that follows the cached one.
	cached := playlist.SegmentPath(engine.cli.HLSTempDir, testMediaID, "720p", "segment_001.ts")
	require.NoError(t, os.WriteFile(cached, []byte("mpegts"), 0644))

	_, err = engine.GetSegment("req1", testMediaID, "720p", "segment_000.ts")
	require.NoError(t, err)

	require.Equal(t, 1, trans.callCount())
	require.Equal(t, 0, engine.jobs.ActiveCount())
}

func TestPrefetchRespectsConcurrencyCap(t *testing.T) {
	trans := &fakeTranscoder{
		started: make(chan transcode.TranscodeJob, 4),
		block:   make(chan struct{}),
	}
	engine, _ := newTestEngine(t, trans, func(cli *config.Cli) {
		cli.PrefetchEnabled = true
		cli.PrefetchCount = 3
		cli.MaxConcurrentPrefetch = 1
	})
	_, err := engine.InitializeStreaming("req0", testMediaID)
	require.NoError(t, err)

	// The foreground request hits a pre-seeded segment 0, then prefetch wants
	// segments 1 to 3 but the cap admits a single job.
	seeded := playlist.SegmentPath(engine.cli.HLSTempDir, testMediaID, "720p", "segment_000.ts")
	require.NoError(t, os.WriteFile(seeded, []byte("mpegts"), 0644))

	_, err = engine.GetSegment("req1", testMediaID, "720p", "segment_000.ts")
	require.NoError(t, err)

	job := <-trans.started
	require.Equal(t, 1, job.Segment.SegmentNumber)
	require.Equal(t, 1, engine.jobs.PrefetchCount())

	close(trans.block)
	require.Eventually(t, func() bool { return engine.jobs.ActiveCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 1, trans.callCount())
}

func TestShutdownFailsWaitersAndRefusesNewWork(t *testing.T) {
	trans := &fakeTranscoder{
		started: make(chan transcode.TranscodeJob, 1),
		block:   make(chan struct{}),
		fail: func(job transcode.TranscodeJob) error {
			return &transcode.BackendError{
				Backend: job.Backend,
				Reason:  transcode.FailureExit,
				Err:     errors.New("killed"),
			}
		},
	}
	engine, _ := newTestEngine(t, trans, nil)
	_, err := engine.InitializeStreaming("req0", testMediaID)
	require.NoError(t, err)

	runnerDone := make(chan error, 1)
	go func() {
		_, err := engine.GetSegment("req1", testMediaID, "720p", "segment_000.ts")
		runnerDone <- err
	}()
	<-trans.started

	waiterDone := make(chan error, 1)
	go func() {
		_, err := engine.GetSegment("req2", testMediaID, "720p", "segment_000.ts")
		waiterDone <- err
	}()

	engine.Shutdown()
	require.ErrorIs(t, <-waiterDone, ErrShutdown)

	close(trans.block)
	require.ErrorIs(t, <-runnerDone, ErrTranscodeFailed)

	_, err = engine.GetSegment("req3", testMediaID, "720p", "segment_001.ts")
	require.ErrorIs(t, err, ErrShutdown)
}

func TestEvictMediaRefusedWhileBusy(t *testing.T) {
	trans := &fakeTranscoder{
		started: make(chan transcode.TranscodeJob, 1),
		block:   make(chan struct{}),
	}
	engine, prober := newTestEngine(t, trans, nil)

	done := make(chan error, 1)
	go func() {
		_, err := engine.GetSegment("req1", testMediaID, "720p", "segment_000.ts")
		done <- err
	}()
	<-trans.started

	require.ErrorIs(t, engine.EvictMedia("req2", testMediaID), ErrMediaBusy)

	close(trans.block)
	require.NoError(t, <-done)

	require.NoError(t, engine.EvictMedia("req3", testMediaID))
	require.NoDirExists(t, playlist.MediaDir(engine.cli.HLSTempDir, testMediaID))
	_, ok := engine.MetadataFor(testMediaID)
	require.False(t, ok)

	// The next request starts over from a fresh probe.
	_, err := engine.GetSegment("req4", testMediaID, "720p", "segment_000.ts")
	require.NoError(t, err)
	require.Equal(t, 2, prober.analyzed())
}

func TestEvictAllClearsCacheRoot(t *testing.T) {
	trans := &fakeTranscoder{
		started: make(chan transcode.TranscodeJob, 1),
		block:   make(chan struct{}),
	}
	engine, _ := newTestEngine(t, trans, nil)

	done := make(chan error, 1)
	go func() {
		_, err := engine.GetSegment("req1", testMediaID, "720p", "segment_000.ts")
		done <- err
	}()
	<-trans.started

	_, err := engine.EvictAll("req2")
	require.ErrorIs(t, err, ErrMediaBusy)

	close(trans.block)
	require.NoError(t, <-done)

	count, err := engine.EvictAll("req3")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	entries, err := os.ReadDir(engine.cli.HLSTempDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestThumbnailServedFromCache(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeTranscoder{}, nil)
	_, err := engine.InitializeStreaming("req0", testMediaID)
	require.NoError(t, err)

	thumbPath := filepath.Join(playlist.MediaDir(engine.cli.HLSTempDir, testMediaID), "thumbnail.jpg")
	require.NoError(t, os.WriteFile(thumbPath, []byte("jpeg"), 0644))

	path, err := engine.Thumbnail("req1", testMediaID)
	require.NoError(t, err)
	require.Equal(t, thumbPath, path)
}

func TestPrewarmSchedulesLeadingSegments(t *testing.T) {
	trans := &fakeTranscoder{}
	engine, _ := newTestEngine(t, trans, nil)

	masterPath, err := engine.Prewarm("req1", testMediaID, "", 3)
	require.NoError(t, err)
	require.FileExists(t, masterPath)

	// Prewarm defaults to the top rendition.
	for _, name := range []string{"segment_000.ts", "segment_001.ts", "segment_002.ts"} {
		segPath := playlist.SegmentPath(engine.cli.HLSTempDir, testMediaID, "1080p", name)
		require.Eventually(t, func() bool { return fileExists(segPath) }, 2*time.Second, 10*time.Millisecond)
	}
	require.Eventually(t, func() bool { return engine.jobs.ActiveCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	_, err = engine.Prewarm("req2", testMediaID, "4k", 1)
	require.ErrorIs(t, err, ErrUnknownQuality)
}

func TestStatsReportsInFlightJobs(t *testing.T) {
	trans := &fakeTranscoder{
		started: make(chan transcode.TranscodeJob, 1),
		block:   make(chan struct{}),
	}
	engine, _ := newTestEngine(t, trans, nil)

	done := make(chan error, 1)
	go func() {
		_, err := engine.GetSegment("req1", testMediaID, "720p", "segment_000.ts")
		done <- err
	}()
	<-trans.started

	stats := engine.Stats()
	require.Equal(t, 1, stats.ActiveJobs)
	require.Equal(t, 0, stats.ActivePrefetch)
	require.Len(t, stats.Jobs, 1)
	require.Equal(t, testMediaID+"/720p/0", stats.Jobs[0].Key)
	require.Equal(t, 1, stats.MetadataEntries)
	require.Equal(t, "cpu", stats.EncoderMode)

	close(trans.block)
	require.NoError(t, <-done)
}

func TestMetadataSummaries(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeTranscoder{}, nil)
	_, err := engine.InitializeStreaming("req1", testMediaID)
	require.NoError(t, err)

	summaries := engine.MetadataSummaries()
	require.Len(t, summaries, 1)
	summary := summaries[testMediaID]
	require.Equal(t, testMediaID, summary.MediaID)
	require.Equal(t, 30.0, summary.Duration)
	require.Equal(t, 5, summary.TotalSegments)
	require.Equal(t, []string{"1080p", "720p", "480p", "360p"}, summary.Profiles)
	require.False(t, summary.Approximate)
}
