package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vks.la/patrol/cache"
	"vks.la/patrol/infrastructure/filesystem"
	"vks.la/patrol/model"
	"vks.la/patrol/store"
	"vks.la/patrol/utils"
)

// Response action tags. ALREADY_SAVED marks the idempotent duplicate path so
// clients can adjust messaging without treating it as a failure.
const (
	ActionSaved        = "SAVED"
	ActionAlreadySaved = "ALREADY_SAVED"
)

// Photo column markers while the decoupled upload is in flight or failed.
const (
	PhotoPending      = "PENDING"
	PhotoUploadFailed = "UPLOAD_FAILED"
)

// MetaLastUpdateKey is the Meta-table row bumped on every successful write.
// Dashboards poll it to decide whether to refetch.
const MetaLastUpdateKey = "lastUpdate"

// GuardProfile is the structured identity a client may send instead of a
// bare employee id; it triggers auto-registration.
type GuardProfile struct {
	EmpID   string `json:"empId" binding:"required"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Phone   string `json:"phone"`
}

// ScanMeta carries the optional fields of a scan submission.
type ScanMeta struct {
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	Accuracy        *float64 `json:"accuracy"`
	Assessment      string   `json:"assessment"`
	Note            string   `json:"note"`
	PhotoBase64     string   `json:"photoBase64"`
	RoundNumber     int      `json:"roundNumber"`
	PointInRound    int      `json:"pointInRound"`
	CompletedRounds int      `json:"completedRounds"`
	TotalRounds     int      `json:"totalRounds"`
	IsOvertime      bool     `json:"isOvertime"`
}

type ScanRequest struct {
	QRPayload          string        `json:"qrPayload"`
	GuardID            string        `json:"guardIdentifier"`
	Guard              *GuardProfile `json:"guardProfile"`
	ExplicitLocationID string        `json:"explicitLocationId"`
	ScanType           string        `json:"scanType" binding:"required"`
	Meta               ScanMeta      `json:"meta"`
}

type ScanResult struct {
	Success          bool   `json:"success"`
	Message          string `json:"message,omitempty"`
	Action           string `json:"action,omitempty"`
	SiteID           string `json:"canonicalSiteId,omitempty"`
	ShiftNumber      int    `json:"shiftNumber,omitempty"`
	ShiftTiming      string `json:"shiftTiming,omitempty"`
	CheckpointTarget int    `json:"checkpointTarget,omitempty"`
	RoundsTarget     int    `json:"roundsTarget,omitempty"`
}

// Processor runs the scan state machine: classify, dedup, persist. One
// instance serves all requests; it keeps no per-request state.
type Processor struct {
	Store     store.TabularStore
	Blobs     filesystem.BlobStore // nil disables photo upload
	Directory *cache.Directory
	Geofence  GeofenceSettings
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewProcessor(st store.TabularStore, blobs filesystem.BlobStore, dir *cache.Directory, geo GeofenceSettings, logger *zap.Logger) *Processor {
	return &Processor{
		Store:     st,
		Blobs:     blobs,
		Directory: dir,
		Geofence:  geo,
		Logger:    logger,
		Now:       utils.VientianeNow,
	}
}

// Process validates and persists one scan submission.
//
// Validation failures and geofence rejections return an error; duplicate
// patrol scans return success tagged ALREADY_SAVED because the offline retry
// path must be idempotent from the client's perspective.
func (p *Processor) Process(ctx context.Context, req ScanRequest) (ScanResult, error) {
	target, err := ParseQRPayload(req.QRPayload)
	if err != nil {
		return ScanResult{}, err
	}
	if req.ExplicitLocationID != "" {
		target.SiteRef = req.ExplicitLocationID
	}

	guardID := strings.TrimSpace(req.GuardID)
	if req.Guard != nil {
		guardID = strings.TrimSpace(req.Guard.EmpID)
	}
	if guardID == "" {
		return ScanResult{}, fmt.Errorf("%w: missing guard identifier", ErrInvalidPayload)
	}

	sites, err := p.Directory.Sites(ctx)
	if err != nil {
		return ScanResult{}, fmt.Errorf("failed to read site directory: %w", err)
	}
	configs, err := p.Directory.SiteConfigs(ctx)
	if err != nil {
		return ScanResult{}, fmt.Errorf("failed to read site config: %w", err)
	}

	canonical := ResolveSite(target.SiteRef, sites)
	if FindSite(canonical, sites) == nil {
		// Best-effort resolution: record under the raw reference and let
		// reporting surface the orphan.
		p.Logger.Warn("unresolved site reference",
			zap.String("raw", target.SiteRef),
			zap.String("guard", guardID))
	}
	cfg := ResolveConfig(canonical, sites, configs)

	if geo := p.checkGeofence(req.Meta, cfg); !geo.Valid {
		return ScanResult{}, fmt.Errorf("%w: %s", ErrOutOfRange, geo.Message)
	}

	switch strings.ToUpper(strings.TrimSpace(req.ScanType)) {
	case model.ScanCheckin:
		return p.checkin(ctx, req, guardID, canonical, cfg)
	case model.ScanPatrol:
		return p.patrol(ctx, req, target, guardID, canonical, cfg)
	case model.ScanCheckout:
		return p.checkout(ctx, req, guardID, canonical, cfg)
	default:
		return ScanResult{}, fmt.Errorf("%w: unknown scan type %q", ErrInvalidPayload, req.ScanType)
	}
}

func (p *Processor) checkin(ctx context.Context, req ScanRequest, guardID, canonical string, cfg EffectiveConfig) (ScanResult, error) {
	if req.Guard != nil {
		if err := p.upsertGuard(ctx, *req.Guard); err != nil {
			return ScanResult{}, err
		}
	}

	shift := CurrentShift(p.Now(), cfg)

	scan := p.baseScan(req.Meta, guardID, canonical)
	scan.Status = model.ScanCheckin
	if err := p.writeScan(ctx, scan); err != nil {
		return ScanResult{}, err
	}

	return ScanResult{
		Success:          true,
		Action:           ActionSaved,
		Message:          "checked in",
		SiteID:           canonical,
		ShiftNumber:      shift.Number,
		ShiftTiming:      shift.Timing,
		CheckpointTarget: cfg.Checkpoints,
		RoundsTarget:     cfg.Rounds,
	}, nil
}

func (p *Processor) patrol(ctx context.Context, req ScanRequest, target ScanTarget, guardID, canonical string, cfg EffectiveConfig) (ScanResult, error) {
	checkpoint := target.Checkpoint
	if checkpoint == "" {
		return ScanResult{}, fmt.Errorf("%w: patrol scan without checkpoint", ErrInvalidPayload)
	}

	dup, err := p.findDuplicatePatrol(ctx, guardID, checkpoint, req.Meta.RoundNumber)
	if err != nil {
		return ScanResult{}, err
	}
	if dup {
		return ScanResult{
			Success:          true,
			Action:           ActionAlreadySaved,
			Message:          "scan already recorded",
			SiteID:           canonical,
			CheckpointTarget: cfg.Checkpoints,
			RoundsTarget:     cfg.Rounds,
		}, nil
	}

	scan := p.baseScan(req.Meta, guardID, canonical)
	scan.Status = model.ScanPatrol
	scan.CheckpointID = checkpoint
	scan.Assessment = req.Meta.Assessment
	scan.Note = req.Meta.Note
	scan.RoundNumber = req.Meta.RoundNumber
	scan.PointInRound = req.Meta.PointInRound
	if req.Meta.PhotoBase64 != "" {
		scan.Photo = PhotoPending
	}

	if err := p.writeScan(ctx, scan); err != nil {
		return ScanResult{}, err
	}

	// Photo upload is decoupled from the write lock on purpose: the row is
	// already durable and the slow network call happens lock-free, then the
	// row is patched in place.
	if req.Meta.PhotoBase64 != "" {
		p.uploadPhoto(ctx, scan.ID, req.Meta.PhotoBase64)
	}

	return ScanResult{
		Success:          true,
		Action:           ActionSaved,
		Message:          "patrol point recorded",
		SiteID:           canonical,
		CheckpointTarget: cfg.Checkpoints,
		RoundsTarget:     cfg.Rounds,
	}, nil
}

func (p *Processor) checkout(ctx context.Context, req ScanRequest, guardID, canonical string, cfg EffectiveConfig) (ScanResult, error) {
	total := req.Meta.TotalRounds
	if total <= 0 {
		total = cfg.Rounds
	}

	scan := p.baseScan(req.Meta, guardID, canonical)
	scan.Status = model.ScanCheckout
	scan.Round = fmt.Sprintf("%d/%d", req.Meta.CompletedRounds, total)
	if err := p.writeScan(ctx, scan); err != nil {
		return ScanResult{}, err
	}

	return ScanResult{
		Success:          true,
		Action:           ActionSaved,
		Message:          "checked out",
		SiteID:           canonical,
		CheckpointTarget: cfg.Checkpoints,
		RoundsTarget:     cfg.Rounds,
	}, nil
}

func (p *Processor) baseScan(meta ScanMeta, guardID, canonical string) model.Scan {
	scan := model.Scan{
		ID:      uuid.NewString(),
		GuardID: guardID,
		SiteID:  canonical,
	}
	if meta.Lat != nil {
		scan.Lat = *meta.Lat
	}
	if meta.Lng != nil {
		scan.Lng = *meta.Lng
	}
	if meta.Accuracy != nil {
		scan.Accuracy = *meta.Accuracy
	}
	return scan
}

// findDuplicatePatrol reports whether the same guard already logged this
// checkpoint in this round today. The read is unlocked: the worst case of a
// stale snapshot is one duplicate row, caught by the next read.
func (p *Processor) findDuplicatePatrol(ctx context.Context, guardID, checkpoint string, roundNumber int) (bool, error) {
	rows, err := p.Store.ReadAll(ctx, model.TableScans)
	if err != nil {
		return false, fmt.Errorf("failed to read scan log: %w", err)
	}

	today := p.Now().In(utils.VientianeTZ)
	for _, row := range rows {
		scan, ok := model.ScanFromRecord(row)
		if !ok || scan.Status != model.ScanPatrol {
			continue
		}
		if scan.GuardID != guardID || scan.CheckpointID != checkpoint || scan.RoundNumber != roundNumber {
			continue
		}
		ts := scan.Timestamp.In(utils.VientianeTZ)
		if ts.Year() == today.Year() && ts.YearDay() == today.YearDay() {
			return true, nil
		}
	}
	return false, nil
}

// writeScan appends the row under the store-wide lock and bumps the
// data-changed marker dashboards poll. Lock hold time stays bounded: no
// network I/O in here.
func (p *Processor) writeScan(ctx context.Context, scan model.Scan) error {
	err := p.Store.WithLock(ctx, func() error {
		if err := p.Store.AppendRow(ctx, model.TableScans, scan.ToRecord()); err != nil {
			return err
		}
		p.markDataChanged(ctx)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write scan: %w", err)
	}
	return nil
}

// markDataChanged is a collaborator notification, best-effort only.
func (p *Processor) markDataChanged(ctx context.Context) {
	MarkDataChanged(ctx, p.Store, p.Now(), p.Logger)
}

// MarkDataChanged bumps the Meta-table marker that dashboards poll. Every
// writer of event tables calls this after a successful append.
func MarkDataChanged(ctx context.Context, st store.TabularStore, now time.Time, logger *zap.Logger) {
	value := now.Format(time.RFC3339)
	found, err := st.FindAndUpdateRow(ctx, model.TableMeta,
		func(r store.Record) bool { return r.Get("key") == MetaLastUpdateKey },
		store.Record{"value": value})
	if err == nil && !found {
		err = st.AppendRow(ctx, model.TableMeta, store.Record{"key": MetaLastUpdateKey, "value": value})
	}
	if err != nil {
		logger.Warn("failed to bump data-changed marker", zap.Error(err))
	}
}

// upsertGuard registers the guard on first sight. Re-checked under the lock
// so concurrent first scans cannot duplicate an empId.
func (p *Processor) upsertGuard(ctx context.Context, profile GuardProfile) error {
	err := p.Store.WithLock(ctx, func() error {
		rows, err := p.Store.ReadAll(ctx, model.TableGuards)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if g, ok := model.GuardFromRecord(row); ok && strings.EqualFold(g.EmpID, profile.EmpID) {
				return nil
			}
		}
		guard := model.Guard{
			EmpID:     profile.EmpID,
			Name:      profile.Name,
			Surname:   profile.Surname,
			Phone:     profile.Phone,
			Status:    model.StatusActive,
			CreatedAt: p.Now(),
		}
		return p.Store.AppendRow(ctx, model.TableGuards, guard.ToRecord())
	})
	if err != nil {
		return fmt.Errorf("failed to register guard %s: %w", profile.EmpID, err)
	}
	return nil
}

func (p *Processor) checkGeofence(meta ScanMeta, cfg EffectiveConfig) GeofenceResult {
	var device *LatLng
	if meta.Lat != nil && meta.Lng != nil {
		device = &LatLng{Lat: *meta.Lat, Lng: *meta.Lng}
	}
	var site *LatLng
	if cfg.Lat != 0 || cfg.Lng != 0 {
		site = &LatLng{Lat: cfg.Lat, Lng: cfg.Lng}
	}

	result := ValidateGeofence(device, site, p.Geofence)
	if !result.Skipped && result.DistanceMeters > p.Geofence.ThresholdMeters && result.Valid {
		p.Logger.Info("geofence exceeded but not enforced",
			zap.Float64("distance_m", result.DistanceMeters))
	}
	return result
}

// uploadPhoto decodes the submitted photo, pushes it to blob storage and
// patches the scan row with the URL, or an error marker when the upload
// fails. Failures here never fail the scan that already succeeded.
func (p *Processor) uploadPhoto(ctx context.Context, scanID, photoBase64 string) {
	patch := func(value string) {
		if _, err := p.Store.FindAndUpdateRow(ctx, model.TableScans,
			func(r store.Record) bool { return r.Get("id") == scanID },
			store.Record{"photo": value}); err != nil {
			p.Logger.Error("failed to patch photo column", zap.String("scan", scanID), zap.Error(err))
		}
	}

	if p.Blobs == nil {
		patch("")
		return
	}

	data, err := DecodePhotoBase64(photoBase64)
	if err != nil {
		p.Logger.Warn("unreadable photo payload", zap.String("scan", scanID), zap.Error(err))
		patch(PhotoUploadFailed)
		return
	}

	url, err := p.Blobs.Upload(ctx, data, "image/jpeg", fmt.Sprintf("scan-%s.jpg", scanID))
	if err != nil {
		p.Logger.Warn("photo upload failed", zap.String("scan", scanID), zap.Error(err))
		patch(PhotoUploadFailed)
		return
	}
	patch(url)
}

// DecodePhotoBase64 accepts either raw base64 or a data URI, as mobile
// clients send both.
func DecodePhotoBase64(photoBase64 string) ([]byte, error) {
	if i := strings.Index(photoBase64, "base64,"); i >= 0 {
		photoBase64 = photoBase64[i+len("base64,"):]
	}
	return base64.StdEncoding.DecodeString(photoBase64)
}
