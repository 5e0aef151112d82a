// Package stream is the just-in-time streaming engine: it initializes HLS
// metadata and playlists for media items, produces segments on demand through
// the transcoder, coalesces concurrent requests for the same segment and
// prefetches the segments a player is about to ask for.
package stream

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vodstream/jit-api/cache"
	"github.com/vodstream/jit-api/catalog"
	"github.com/vodstream/jit-api/config"
	"github.com/vodstream/jit-api/log"
	"github.com/vodstream/jit-api/metrics"
	"github.com/vodstream/jit-api/playlist"
	"github.com/vodstream/jit-api/transcode"
	"github.com/vodstream/jit-api/video"
)

// thumbnailQuality is the job tracker quality slot for poster frame
// extraction, so thumbnails get the same single-flight treatment as segments.
const thumbnailQuality = "thumb"

// PrefetchCached reports a prefetch candidate that already exists in the
// segment cache. Produced by the engine's cache check before the tracker is
// consulted.
const PrefetchCached PrefetchOutcome = "cached"

// MediaFinder is the upstream media library lookup.
type MediaFinder interface {
	FindMedia(mediaID string) (catalog.MediaInfo, error)
}

// SegmentTranscoder runs the external encoder for one segment. The output
// must only appear at OutputPath once it is complete: the engine treats any
// non-empty file at a segment path as a finished segment.
type SegmentTranscoder interface {
	Transcode(requestID string, job transcode.TranscodeJob) error
}

// Engine orchestrates JIT streaming. It should be called directly from the
// API handlers; every blocking wait happens on the calling goroutine while
// prefetch work runs in background.
type Engine struct {
	cli      *config.Cli
	library  MediaFinder
	prober   video.Prober
	worker   SegmentTranscoder
	profiles []video.QualityProfile

	metadata  *cache.Cache[*video.MediaMetadata]
	jobs      *JobTracker
	processes *ProcessSet

	// initLocks serializes InitializeStreaming per media ID so one probe runs
	// per item no matter how many players arrive at once. Entries are tiny and
	// bounded by the library size, so they are never evicted.
	initMu    sync.Mutex
	initLocks map[string]*sync.Mutex

	// backend is memoized after the first successful transcode so an
	// unavailable accelerator is not probed again on every segment.
	backendMu sync.Mutex
	backend   transcode.Backend

	closed atomic.Bool
}

func NewEngine(cli *config.Cli, library MediaFinder, profiles []video.QualityProfile) *Engine {
	processes := NewProcessSet()
	prober := video.NewProbe(cli.FFprobePath, cli.SegmentDuration())
	worker := &transcode.Worker{
		FFmpegPath:  cli.FFmpegPath,
		SpeedPreset: cli.SpeedPreset,
		Verbose:     cli.VerboseEncoder,
		Validate:    true,
		Probe:       prober,
		Processes:   processes,
	}
	return newEngine(cli, library, prober, worker, processes, profiles)
}

// NewStubEngine builds an engine with injected probe and transcoder fakes.
// Only used in tests.
func NewStubEngine(cli *config.Cli, library MediaFinder, prober video.Prober, worker SegmentTranscoder, profiles []video.QualityProfile) *Engine {
	return newEngine(cli, library, prober, worker, NewProcessSet(), profiles)
}

func newEngine(cli *config.Cli, library MediaFinder, prober video.Prober, worker SegmentTranscoder, processes *ProcessSet, profiles []video.QualityProfile) *Engine {
	if len(profiles) == 0 {
		profiles = video.DefaultQualityProfiles
	}
	return &Engine{
		cli:       cli,
		library:   library,
		prober:    prober,
		worker:    worker,
		profiles:  profiles,
		metadata:  cache.New[*video.MediaMetadata](),
		jobs:      NewJobTracker(),
		processes: processes,
		initLocks: make(map[string]*sync.Mutex),
	}
}

// Processes exposes the process set for workers constructed outside the
// engine, e.g. in tests that exercise shutdown.
func (e *Engine) Processes() *ProcessSet {
	return e.processes
}

// InitializeStreaming makes sure metadata and playlists exist for the media
// item and returns the master playlist path. Idempotent with respect to the
// metadata cache: repeat calls return the cached plan without re-probing.
func (e *Engine) InitializeStreaming(requestID string, mediaID string) (string, error) {
	metadata, err := e.ensureMetadata(requestID, mediaID)
	if err != nil {
		return "", err
	}
	return playlist.MasterPath(e.cli.HLSTempDir, metadata.MediaID), nil
}

// VariantPlaylistPath returns the on-disk path of one rendition playlist,
// initializing streaming on demand.
func (e *Engine) VariantPlaylistPath(requestID string, mediaID string, quality string) (string, error) {
	metadata, err := e.ensureMetadata(requestID, mediaID)
	if err != nil {
		return "", err
	}
	if _, ok := metadata.FindProfile(quality); !ok {
		return "", fmt.Errorf("%w: %q is not a rendition of %s", ErrUnknownQuality, quality, mediaID)
	}
	return playlist.VariantPath(e.cli.HLSTempDir, mediaID, quality), nil
}

func (e *Engine) ensureMetadata(requestID string, mediaID string) (*video.MediaMetadata, error) {
	if e.closed.Load() {
		return nil, ErrShutdown
	}
	if metadata, ok := e.metadata.Get(mediaID); ok {
		return metadata, nil
	}

	lock := e.initLock(mediaID)
	lock.Lock()
	defer lock.Unlock()
	if metadata, ok := e.metadata.Get(mediaID); ok {
		return metadata, nil
	}

	info, err := e.library.FindMedia(mediaID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaNotFound, err)
	}
	log.AddContext(requestID, "media_id", mediaID, "media_path", info.RelPath)
	log.Log(requestID, "initializing streaming")

	probeStart := time.Now()
	analysis, err := e.prober.Analyze(requestID, info.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	mode := video.SegmentModeAccurate
	keyframes, err := e.prober.AnalyzeKeyframes(requestID, info.Path)
	if err != nil {
		log.LogError(requestID, "keyframe probe failed, falling back to uniform segments", err)
		mode = video.SegmentModeApproximate
		keyframes = nil
	} else {
		for _, warning := range video.ValidateKeyframeStructure(keyframes, analysis.Duration) {
			log.Log(requestID, "keyframe structure warning", "warning", warning)
		}
	}
	metrics.Metrics.ProbeDurationSec.Observe(time.Since(probeStart).Seconds())

	var segments []video.Segment
	if mode == video.SegmentModeAccurate {
		segments = video.CalculateSegments(keyframes, e.cli.SegmentDuration(), analysis.Duration)
		for _, warning := range video.ValidateSegmentTiling(segments, analysis.Duration) {
			log.Log(requestID, "segment tiling warning", "warning", warning)
		}
	}
	if len(segments) == 0 {
		mode = video.SegmentModeApproximate
		keyframes = nil
		segments = video.CalculateApproximateSegments(e.cli.SegmentDuration(), analysis.Duration)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments could be planned for %s", ErrProbeFailed, mediaID)
	}

	metadata := &video.MediaMetadata{
		MediaID:           mediaID,
		MediaPath:         info.Path,
		Duration:          analysis.Duration,
		SegmentDuration:   e.cli.SegmentDuration(),
		TotalSegments:     len(segments),
		AvailableProfiles: video.EligibleProfiles(e.profiles, analysis.Width, analysis.Height),
		Analysis:          analysis,
		SegmentMode:       mode,
		Keyframes:         keyframes,
		Segments:          segments,
	}

	masterPath, err := playlist.WriteAll(e.cli.HLSTempDir, *metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlaylistWrite, err)
	}
	metrics.Metrics.PlaylistsWrittenCount.Inc()

	e.metadata.Set(mediaID, metadata)
	metrics.Metrics.MetadataEntries.Set(float64(e.metadata.Len()))
	log.Log(requestID, "initialized streaming",
		"duration", analysis.Duration, "segments", len(segments), "mode", string(mode),
		"renditions", len(metadata.AvailableProfiles), "master_playlist", masterPath)
	return metadata, nil
}

func (e *Engine) initLock(mediaID string) *sync.Mutex {
	e.initMu.Lock()
	defer e.initMu.Unlock()
	lock, ok := e.initLocks[mediaID]
	if !ok {
		lock = &sync.Mutex{}
		e.initLocks[mediaID] = lock
	}
	return lock
}

// GetSegment produces one segment, from cache when possible, and returns its
// on-disk path. On a miss it either joins the in-flight transcode for the same
// segment or starts one, then fires prefetch for the segments after it.
func (e *Engine) GetSegment(requestID string, mediaID string, quality string, segmentFile string) (string, error) {
	start := time.Now()
	// The name check comes before metadata init: a malformed request must not
	// trigger a probe or touch the filesystem.
	segmentNumber, err := video.ParseSegmentFileName(segmentFile)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadSegmentName, err)
	}

	metadata, err := e.ensureMetadata(requestID, mediaID)
	if err != nil {
		return "", err
	}
	segment, ok := metadata.FindSegment(segmentNumber)
	if !ok {
		return "", fmt.Errorf("%w: segment %d of %s, plan has %d", ErrSegmentOutOfRange, segmentNumber, mediaID, metadata.TotalSegments)
	}
	profile, ok := metadata.FindProfile(quality)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a rendition of %s", ErrUnknownQuality, quality, mediaID)
	}

	segmentPath := playlist.SegmentPath(e.cli.HLSTempDir, mediaID, quality, segment.FileName)
	if fileExists(segmentPath) {
		e.observeRequest("hit", quality, start)
		e.firePrefetch(requestID, metadata, profile, segmentNumber)
		return segmentPath, nil
	}

	if e.closed.Load() {
		return "", ErrShutdown
	}
	job, existing := e.jobs.GetOrRegister(JobKey{MediaID: mediaID, Quality: quality, SegmentNumber: segmentNumber})
	if existing {
		log.Log(requestID, "joining in-flight transcode", "key", job.Key.String(), "is_prefetch", job.IsPrefetch)
		path, err := job.Wait()
		if err != nil {
			e.observeRequest("error", quality, start)
			return "", err
		}
		e.observeRequest("coalesced", quality, start)
		e.firePrefetch(requestID, metadata, profile, segmentNumber)
		return path, nil
	}

	path, err := e.runJob(requestID, job, metadata, profile, segment, segmentPath)
	if err != nil {
		e.observeRequest("error", quality, start)
		return "", err
	}
	e.observeRequest("transcoded", quality, start)
	e.firePrefetch(requestID, metadata, profile, segmentNumber)
	return path, nil
}

// runJob executes the JIT transcode behind a registered job, resolves its
// future and deregisters it on every exit path, panics included.
func (e *Engine) runJob(requestID string, job *Job, metadata *video.MediaMetadata, profile video.QualityProfile, segment video.Segment, segmentPath string) (string, error) {
	defer e.jobs.Complete(job.Key)
	path, err := recovered(func() (string, error) {
		return e.performJIT(requestID, metadata, profile, segment, segmentPath)
	})
	job.complete(path, err)
	return path, err
}

// performJIT produces one segment through the encoder fallback chain.
func (e *Engine) performJIT(requestID string, metadata *video.MediaMetadata, profile video.QualityProfile, segment video.Segment, segmentPath string) (string, error) {
	// An earlier job for this key may have finished between the cache check
	// and registration.
	if fileExists(segmentPath) {
		return segmentPath, nil
	}

	chain := e.backendChain()
	var lastErr error
	for _, backend := range chain {
		if e.closed.Load() {
			return "", ErrShutdown
		}
		attemptStart := time.Now()
		err := e.worker.Transcode(requestID, transcode.TranscodeJob{
			MediaPath:  metadata.MediaPath,
			Segment:    segment,
			Profile:    profile,
			Analysis:   metadata.Analysis,
			OutputPath: segmentPath,
			Backend:    backend,
		})
		if err == nil {
			metrics.Metrics.TranscodeCount.WithLabelValues(string(backend), "success").Inc()
			metrics.Metrics.TranscodeDurationSec.WithLabelValues(string(backend), profile.Name).Observe(time.Since(attemptStart).Seconds())
			e.memoizeBackend(backend)
			return segmentPath, nil
		}
		metrics.Metrics.TranscodeCount.WithLabelValues(string(backend), "failure").Inc()
		log.LogError(requestID, "segment transcode attempt failed", err,
			"backend", string(backend), "quality", profile.Name, "segment", segment.SegmentNumber)
		lastErr = err
	}
	return "", fmt.Errorf("%w after %d backend attempt(s): %v", ErrTranscodeFailed, len(chain), lastErr)
}

// backendChain is the configured fallback chain, fast-forwarded to the
// memoized backend once one has succeeded. Accelerators earlier in the chain
// already failed, so they are skipped; later entries stay available in case
// the memoized backend trips over a particular input.
func (e *Engine) backendChain() []transcode.Backend {
	chain := transcode.FallbackChain(e.cli.EncoderMode)
	e.backendMu.Lock()
	memoized := e.backend
	e.backendMu.Unlock()
	if memoized == "" {
		return chain
	}
	for i, backend := range chain {
		if backend == memoized {
			return chain[i:]
		}
	}
	return chain
}

func (e *Engine) memoizeBackend(backend transcode.Backend) {
	e.backendMu.Lock()
	defer e.backendMu.Unlock()
	if e.backend == "" {
		e.backend = backend
		log.LogNoRequestID("selected encoder backend", "backend", string(backend), "mode", string(e.cli.EncoderMode))
	}
}

// EncoderBackend reports the memoized backend, empty until the first
// successful transcode.
func (e *Engine) EncoderBackend() transcode.Backend {
	e.backendMu.Lock()
	defer e.backendMu.Unlock()
	return e.backend
}

// firePrefetch schedules background transcodes for the next few segments
// after current. A cached or already in-flight candidate stops the walk: the
// window will be extended again when the player fetches the next segment.
func (e *Engine) firePrefetch(requestID string, metadata *video.MediaMetadata, profile video.QualityProfile, current int) {
	if !e.cli.PrefetchEnabled || e.cli.PrefetchCount <= 0 || e.closed.Load() {
		return
	}
	for i := 1; i <= e.cli.PrefetchCount; i++ {
		n := current + i
		if n >= metadata.TotalSegments {
			return
		}
		switch e.tryPrefetchSegment(requestID, metadata, profile, n) {
		case PrefetchCached, PrefetchInFlight:
			return
		}
	}
}

// tryPrefetchSegment registers and launches one background transcode unless
// the segment is cached, already in flight, or the prefetch cap is reached.
func (e *Engine) tryPrefetchSegment(requestID string, metadata *video.MediaMetadata, profile video.QualityProfile, n int) PrefetchOutcome {
	segment, ok := metadata.FindSegment(n)
	if !ok {
		return PrefetchCached
	}
	segmentPath := playlist.SegmentPath(e.cli.HLSTempDir, metadata.MediaID, profile.Name, segment.FileName)
	if fileExists(segmentPath) {
		metrics.Metrics.PrefetchJobCount.WithLabelValues("skipped_cache").Inc()
		return PrefetchCached
	}

	job, outcome := e.jobs.TryRegisterPrefetch(JobKey{MediaID: metadata.MediaID, Quality: profile.Name, SegmentNumber: n}, e.cli.MaxConcurrentPrefetch)
	switch outcome {
	case PrefetchInFlight:
		metrics.Metrics.PrefetchJobCount.WithLabelValues("skipped_inflight").Inc()
		return outcome
	case PrefetchAtCapacity:
		metrics.Metrics.PrefetchJobCount.WithLabelValues("skipped_cap").Inc()
		return outcome
	}
	metrics.Metrics.PrefetchJobCount.WithLabelValues("started").Inc()

	// Prefetch logs under a derived request ID so background noise is
	// attributable but distinguishable from the foreground request.
	prefetchID := "pf_" + requestID
	log.Log(requestID, "prefetching segment", "key", job.Key.String())
	go func() {
		defer e.jobs.Complete(job.Key)
		path, err := recovered(func() (string, error) {
			return e.performJIT(prefetchID, metadata, profile, segment, segmentPath)
		})
		job.complete(path, err)
		if err != nil {
			// Logged only: the foreground request that needs this segment
			// will retry through the normal path.
			metrics.Metrics.PrefetchJobCount.WithLabelValues("failed").Inc()
			log.LogError(prefetchID, "prefetch transcode failed", err, "key", job.Key.String())
			return
		}
		metrics.Metrics.PrefetchJobCount.WithLabelValues("completed").Inc()
	}()
	return PrefetchRegistered
}

// Prewarm initializes streaming and schedules the first segments of one
// rendition in background, so playback starts from a warm cache. Returns the
// master playlist path without waiting for the jobs.
func (e *Engine) Prewarm(requestID string, mediaID string, quality string, segments int) (string, error) {
	metadata, err := e.ensureMetadata(requestID, mediaID)
	if err != nil {
		return "", err
	}

	profile := metadata.AvailableProfiles[0]
	if quality != "" {
		var ok bool
		profile, ok = metadata.FindProfile(quality)
		if !ok {
			return "", fmt.Errorf("%w: %q is not a rendition of %s", ErrUnknownQuality, quality, mediaID)
		}
	}
	if segments <= 0 {
		segments = e.cli.PrefetchCount
	}
	if segments > metadata.TotalSegments {
		segments = metadata.TotalSegments
	}

	scheduled := 0
	for n := 0; n < segments; n++ {
		outcome := e.tryPrefetchSegment(requestID, metadata, profile, n)
		if outcome == PrefetchAtCapacity {
			break
		}
		if outcome == PrefetchRegistered {
			scheduled++
		}
	}
	log.Log(requestID, "prewarm scheduled", "quality", profile.Name, "requested", segments, "scheduled", scheduled)
	return playlist.MasterPath(e.cli.HLSTempDir, mediaID), nil
}

// Thumbnail returns the poster frame for a media item, extracting it on first
// request. Concurrent requests share one extraction via the job tracker.
func (e *Engine) Thumbnail(requestID string, mediaID string) (string, error) {
	metadata, err := e.ensureMetadata(requestID, mediaID)
	if err != nil {
		return "", err
	}
	thumbPath := filepath.Join(playlist.MediaDir(e.cli.HLSTempDir, mediaID), "thumbnail.jpg")
	if fileExists(thumbPath) {
		return thumbPath, nil
	}
	if e.closed.Load() {
		return "", ErrShutdown
	}

	job, existing := e.jobs.GetOrRegister(JobKey{MediaID: mediaID, Quality: thumbnailQuality, SegmentNumber: 0})
	if existing {
		return job.Wait()
	}
	defer e.jobs.Complete(job.Key)
	path, err := recovered(func() (string, error) {
		if err := video.ExtractThumbnail(metadata.MediaPath, thumbPath, metadata.Duration*0.1); err != nil {
			metrics.Metrics.ThumbnailCount.WithLabelValues("failure").Inc()
			return "", err
		}
		metrics.Metrics.ThumbnailCount.WithLabelValues("success").Inc()
		return thumbPath, nil
	})
	job.complete(path, err)
	return path, err
}

// EvictMedia removes the metadata entry and the on-disk cache tree for one
// media item. Refused while jobs for it are in flight.
func (e *Engine) EvictMedia(requestID string, mediaID string) error {
	// Holding the init lock keeps a concurrent GetSegment from re-creating
	// the metadata entry mid-eviction. A segment request that already passed
	// its cache check can still race the RemoveAll below; its job then writes
	// into a fresh tree and the next eviction collects it.
	lock := e.initLock(mediaID)
	lock.Lock()
	defer lock.Unlock()
	if count := e.jobs.CountForMedia(mediaID); count > 0 {
		return fmt.Errorf("%w: %d job(s) running for %s", ErrMediaBusy, count, mediaID)
	}
	e.metadata.Delete(mediaID)
	metrics.Metrics.MetadataEntries.Set(float64(e.metadata.Len()))
	if err := os.RemoveAll(playlist.MediaDir(e.cli.HLSTempDir, mediaID)); err != nil {
		return fmt.Errorf("failed to remove cache tree for %s: %w", mediaID, err)
	}
	log.Log(requestID, "evicted media cache", "media_id", mediaID)
	return nil
}

// EvictAll clears every metadata entry and the whole on-disk cache. Refused
// while any job is in flight. Returns the number of evicted metadata entries.
func (e *Engine) EvictAll(requestID string) (int, error) {
	if active := e.jobs.ActiveCount(); active > 0 {
		return 0, fmt.Errorf("%w: %d job(s) running", ErrMediaBusy, active)
	}
	count := e.metadata.Clear()
	metrics.Metrics.MetadataEntries.Set(0)

	entries, err := os.ReadDir(e.cli.HLSTempDir)
	if err != nil {
		return count, fmt.Errorf("failed to list cache root: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(e.cli.HLSTempDir, entry.Name())); err != nil {
			return count, fmt.Errorf("failed to remove %s from cache root: %w", entry.Name(), err)
		}
	}
	log.Log(requestID, "evicted all media caches", "metadata_entries", count)
	return count, nil
}

// EngineStats is the diagnostic snapshot served on the stats endpoint.
type EngineStats struct {
	ActiveJobs       int       `json:"activeJobs"`
	ActivePrefetch   int       `json:"activePrefetch"`
	Jobs             []JobStat `json:"jobs"`
	MetadataEntries  int       `json:"metadataEntries"`
	EncoderMode      string    `json:"encoderMode"`
	EncoderBackend   string    `json:"encoderBackend"`
	TrackedProcesses int       `json:"trackedProcesses"`
	CacheDir         string    `json:"cacheDir"`
}

func (e *Engine) Stats() EngineStats {
	return EngineStats{
		ActiveJobs:       e.jobs.ActiveCount(),
		ActivePrefetch:   e.jobs.PrefetchCount(),
		Jobs:             e.jobs.Stats(),
		MetadataEntries:  e.metadata.Len(),
		EncoderMode:      string(e.cli.EncoderMode),
		EncoderBackend:   string(e.EncoderBackend()),
		TrackedProcesses: e.processes.Len(),
		CacheDir:         e.cli.HLSTempDir,
	}
}

// MediaSummary is the per-item digest served on the metadata listing
// endpoint.
type MediaSummary struct {
	MediaID         string   `json:"mediaId"`
	Duration        float64  `json:"duration"`
	SegmentDuration float64  `json:"segmentDuration"`
	TotalSegments   int      `json:"totalSegments"`
	Profiles        []string `json:"profiles"`
	Approximate     bool     `json:"approximate"`
}

func (e *Engine) MetadataSummaries() map[string]MediaSummary {
	all := e.metadata.GetAll()
	summaries := make(map[string]MediaSummary, len(all))
	for mediaID, metadata := range all {
		profiles := make([]string, 0, len(metadata.AvailableProfiles))
		for _, profile := range metadata.AvailableProfiles {
			profiles = append(profiles, profile.Name)
		}
		summaries[mediaID] = MediaSummary{
			MediaID:         mediaID,
			Duration:        metadata.Duration,
			SegmentDuration: metadata.SegmentDuration,
			TotalSegments:   metadata.TotalSegments,
			Profiles:        profiles,
			Approximate:     metadata.SegmentMode == video.SegmentModeApproximate,
		}
	}
	return summaries
}

// MetadataFor returns the cached metadata for one media item, if initialized.
// Callers must treat the result as read-only.
func (e *Engine) MetadataFor(mediaID string) (*video.MediaMetadata, bool) {
	return e.metadata.Get(mediaID)
}

// Shutdown kills every tracked encoder process, fails all registered jobs
// with ErrShutdown and refuses new work. Safe to call more than once.
func (e *Engine) Shutdown() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	killed := e.processes.Shutdown()
	cleared := e.jobs.Clear()
	log.LogNoRequestID("streaming engine shut down", "killed_processes", killed, "cleared_jobs", cleared)
}

func (e *Engine) observeRequest(outcome string, quality string, start time.Time) {
	metrics.Metrics.SegmentRequestCount.WithLabelValues(outcome).Inc()
	metrics.Metrics.SegmentRequestDurationSec.WithLabelValues(outcome, quality).Observe(time.Since(start).Seconds())
}

// fileExists treats empty files as absent: a zero byte segment is a write
// that never got data and must be produced again.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func recovered[T any](f func() (T, error)) (t T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.LogNoRequestID("panic in transcode job, recovering", "err", rec)
			err = fmt.Errorf("panic in transcode job: %v", rec)
		}
	}()
	return f()
}
