package appraisal

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"gloveiq-backend/internal/cache"
	"gloveiq-backend/internal/catalog"
	"gloveiq-backend/internal/evidence"
	"gloveiq-backend/internal/ledger"
	"gloveiq-backend/internal/logger"
	"gloveiq-backend/internal/matcher"
	"gloveiq-backend/internal/models"
	"gloveiq-backend/internal/photostore"
	"gloveiq-backend/internal/valuation"
	"gloveiq-backend/internal/vision"
)

// MaxPhotosPerRequest caps one analysis submission.
const MaxPhotosPerRequest = 10

// Identifier is the external vision capability boundary.
type Identifier interface {
	Identify(ctx context.Context, images []vision.ImageInput, hint string) (*vision.IdentificationResult, error)
}

type PhotoUpload struct {
	Name string
	Mime string
	Data []byte
}

// Service runs the appraisal pipeline: dedupe and store photos, classify
// evidence, obtain a cached identification, match a variant, select comps,
// decide a mode, and append the run to the ledger. All caches are injected,
// never package globals, so tests run against fresh state.
type Service struct {
	store      *photostore.Store
	cat        *catalog.Catalog
	match      *matcher.Matcher
	identifier Identifier
	led        *ledger.Ledger

	idCache   *cache.TTLCache[*vision.IdentificationResult]
	respCache *cache.TTLCache[*models.AnalyzeResponse]
	idGroup   singleflight.Group

	log *logger.Logger
	now func() time.Time
}

func NewService(
	store *photostore.Store,
	cat *catalog.Catalog,
	match *matcher.Matcher,
	identifier Identifier,
	led *ledger.Ledger,
	idCache *cache.TTLCache[*vision.IdentificationResult],
	respCache *cache.TTLCache[*models.AnalyzeResponse],
	log *logger.Logger,
) *Service {
	return &Service{
		store:      store,
		cat:        cat,
		match:      match,
		identifier: identifier,
		led:        led,
		idCache:    idCache,
		respCache:  respCache,
		log:        log,
		now:        time.Now,
	}
}

func hashKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Analyze runs the full pipeline for one photo bundle. Identification
// failures abort the request; missing evidence does not, it resolves to a
// disabled mode instead.
func (s *Service) Analyze(ctx context.Context, artifactID, hint string, photos []PhotoUpload) (*models.AnalyzeResponse, error) {
	if len(photos) == 0 {
		return nil, fmt.Errorf("no photos provided")
	}
	if len(photos) > MaxPhotosPerRequest {
		return nil, fmt.Errorf("too many photos: %d exceeds the limit of %d", len(photos), MaxPhotosPerRequest)
	}

	mintedArtifact := false
	if artifactID == "" {
		artifactID = "art_" + uuid.New().String()
		mintedArtifact = true
	}

	// Stage 1+2: dedupe/store each photo and assess its evidence value.
	uploads := make([]models.UploadInfo, 0, len(photos))
	assessments := make([]evidence.Assessment, 0, len(photos))
	bundleItems := make([]evidence.BundleItem, 0, len(photos))
	images := make([]vision.ImageInput, 0, len(photos))
	var newImages []photostore.StoredImage

	for _, p := range photos {
		put, err := s.store.Put(p.Name, p.Mime, p.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to store photo %s: %w", p.Name, err)
		}
		if !put.Deduped {
			newImages = append(newImages, put.Image)
		}

		a := evidence.Assess(p.Name, int64(len(p.Data)))
		assessments = append(assessments, a)
		bundleItems = append(bundleItems, evidence.BundleItem{
			SHA256: put.Image.SHA256,
			Role:   a.Role,
			Usable: a.Usable,
		})
		images = append(images, vision.ImageInput{Mime: p.Mime, Bytes: p.Data})
		uploads = append(uploads, models.UploadInfo{
			PhotoID: put.Image.ImageID,
			Name:    p.Name,
			Role:    a.Role,
			Usable:  a.Usable,
			Deduped: put.Deduped,
			URL:     put.Image.URL,
		})
	}

	fingerprint := evidence.BundleFingerprint(bundleItems)

	// Whole-response cache: identical (artifact, bundle, hint) triples are
	// reproducible without re-running any stage or re-appending the ledger.
	respKey := hashKey(artifactID, "|", fingerprint, "|", hint)
	if cached, hit := s.respCache.Get(respKey); hit {
		resp := *cached
		resp.Cache = models.CacheInfo{Hit: true, Key: respKey}
		return &resp, nil
	}

	// Stage 3: cached identification via the vision capability.
	idKey := hashKey("identify", fingerprint, hint)
	ident, idCached, err := s.identify(ctx, idKey, images, hint)
	if err != nil {
		return nil, fmt.Errorf("identification stage failed: %w", err)
	}

	conflict := s.conflictingBrandSignals(hint, ident.Brand)

	// Stage 4: evidence fusion and variant ranking.
	fused := s.fusedEvidenceText(ident, hint, assessments)
	matches := s.match.Rank(fused)
	confirmed := matcher.Confirmed(ident.VariantConfirmed, matches)
	chosen, haveVariant := s.match.Choose(ident.VariantID, matches)

	chosenID := ""
	if haveVariant {
		chosenID = chosen.ID
	}
	brandKey, ok := s.cat.BrandKeyFor(ident.Brand)
	if !ok && haveVariant {
		brandKey = chosen.BrandKey
	}

	neighborIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		neighborIDs = append(neighborIDs, m.Variant.ID)
	}

	// Stage 5+6: comp selection, mode decision, then the valuation math the
	// resolved mode is allowed to disclose.
	gate := evidence.EvaluateGate(assessments)
	sel := valuation.SelectComps(s.cat, chosenID, neighborIDs, brandKey)
	route := Decide(Signals{
		IDConfidence:            ident.IDConfidence,
		VariantConfirmed:        confirmed,
		ConditionConfidence:     ident.ConditionConfidence,
		CompsCount:              len(sel.Comps),
		RequiredPhotosPresent:   gate.RequiredPhotosPresent,
		ConflictingBrandSignals: conflict,
	})
	val := valuation.Compute(sel,
		route.Mode == ModeEstimateAndRange,
		route.Mode == ModeEstimateAndRange || route.Mode == ModeRangeOnly,
		s.now())

	resp := s.buildResponse(artifactID, respKey, uploads, assessments, gate, fingerprint, ident, idCached, conflict, matches, chosen, confirmed, route, val)

	if err := s.appendRun(artifactID, fingerprint, mintedArtifact, newImages, uploads, ident, idCached, gate, route, val); err != nil {
		return nil, fmt.Errorf("failed to record appraisal run: %w", err)
	}

	s.respCache.Set(respKey, resp)

	s.log.Info("appraisal analyzed",
		"artifact_id", artifactID,
		"bundle", fingerprint[:12],
		"mode", route.Mode,
		"comps", val.CompsUsed,
		"comps_source", val.Source,
	)
	return resp, nil
}

// identify returns the cached identification for this bundle+hint, invoking
// the vision capability at most once per key even under concurrent requests.
func (s *Service) identify(ctx context.Context, key string, images []vision.ImageInput, hint string) (*vision.IdentificationResult, bool, error) {
	if cached, hit := s.idCache.Get(key); hit {
		return cached, true, nil
	}

	v, err, _ := s.idGroup.Do(key, func() (interface{}, error) {
		result, err := s.identifier.Identify(ctx, images, hint)
		if err != nil {
			return nil, err
		}
		s.idCache.Set(key, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*vision.IdentificationResult), false, nil
}

// conflictingBrandSignals flags a hint that names more than one known brand,
// or exactly one that differs from the identified brand.
func (s *Service) conflictingBrandSignals(hint, identifiedBrand string) bool {
	mentioned := s.cat.BrandsMentioned(hint)
	if len(mentioned) > 1 {
		return true
	}
	if len(mentioned) == 1 {
		identifiedKey, _ := s.cat.BrandKeyFor(identifiedBrand)
		return mentioned[0] != identifiedKey
	}
	return false
}

func (s *Service) fusedEvidenceText(ident *vision.IdentificationResult, hint string, assessments []evidence.Assessment) string {
	parts := []string{
		ident.Brand, ident.Family, ident.Model, ident.Pattern, ident.Size,
		ident.Web, ident.Leather, ident.MadeIn, ident.StampText, hint,
	}
	for _, a := range assessments {
		parts = append(parts, a.Name)
	}
	return strings.Join(parts, " ")
}

func (s *Service) buildResponse(
	artifactID, respKey string,
	uploads []models.UploadInfo,
	assessments []evidence.Assessment,
	gate evidence.Gate,
	fingerprint string,
	ident *vision.IdentificationResult,
	idCached, conflict bool,
	matches []matcher.Match,
	chosen *catalog.Variant,
	confirmed bool,
	route Route,
	val valuation.Result,
) *models.AnalyzeResponse {
	photoDTOs := make([]models.PhotoAssessment, len(assessments))
	for i, a := range assessments {
		photoDTOs[i] = models.PhotoAssessment{
			Name:   a.Name,
			Role:   a.Role,
			Usable: a.Usable,
			Quality: models.QualityInfo{
				BlurScore:  a.Quality.BlurScore,
				GlareScore: a.Quality.GlareScore,
				CropScore:  a.Quality.CropScore,
				Issues:     a.Quality.Issues,
			},
		}
	}

	topMatches := make([]models.VariantMatch, len(matches))
	for i, m := range matches {
		topMatches[i] = models.VariantMatch{VariantID: m.Variant.ID, Similarity: m.Similarity}
	}

	chosenID := ident.VariantID
	if chosen != nil {
		chosenID = chosen.ID
	}

	label := ConfidenceLabel(ident.IDConfidence)

	return &models.AnalyzeResponse{
		ArtifactID: artifactID,
		Uploads:    uploads,
		Stages: models.Stages{
			Identify: models.IdentifyStage{
				Brand:                   ident.Brand,
				Family:                  ident.Family,
				Model:                   ident.Model,
				Pattern:                 ident.Pattern,
				Size:                    ident.Size,
				ThrowSide:               ident.ThrowSide,
				Web:                     ident.Web,
				Leather:                 ident.Leather,
				MadeIn:                  ident.MadeIn,
				VariantID:               ident.VariantID,
				IDConfidence:            ident.IDConfidence,
				VariantConfirmed:        confirmed,
				ConditionConfidence:     ident.ConditionConfidence,
				StampText:               ident.StampText,
				CountryStamp:            ident.CountryStamp,
				ConflictingBrandSignals: conflict,
				Cached:                  idCached,
			},
			Evidence: models.EvidenceStage{
				Photos:                photoDTOs,
				RequiredPhotosPresent: gate.RequiredPhotosPresent,
				MissingRoles:          gate.Missing,
				BundleFingerprint:     fingerprint,
			},
			Valuation: models.ValuationStage{
				PointEstimate:      val.PointEstimate,
				RangeLow:           val.RangeLow,
				RangeHigh:          val.RangeHigh,
				CompsUsed:          val.CompsUsed,
				CompsSource:        val.Source,
				LiquidityScore:     val.LiquidityScore,
				SuggestedListPrice: val.SuggestedListPrice,
			},
			Recommendation: models.RecommendationStage{
				Mode:            route.Mode,
				Reason:          route.Reason,
				ConfidenceLabel: label,
			},
		},
		Appraisal: models.AppraisalSummary{
			Brand:              ident.Brand,
			Family:             ident.Family,
			Model:              ident.Model,
			Pattern:            ident.Pattern,
			VariantID:          chosenID,
			VariantConfirmed:   confirmed,
			Mode:               route.Mode,
			ConfidenceLabel:    label,
			PointEstimate:      val.PointEstimate,
			RangeLow:           val.RangeLow,
			RangeHigh:          val.RangeHigh,
			SuggestedListPrice: val.SuggestedListPrice,
			LiquidityScore:     val.LiquidityScore,
			TopMatches:         topMatches,
		},
		Cache: models.CacheInfo{Hit: false, Key: respKey},
	}
}

// appendRun writes the whole run to the ledger as one atomic batch: two AI
// runs (identify + fused evidence), one valuation run, one verification
// event, one artifact_images row per photo, plus registrations for any newly
// minted artifact or newly stored image.
func (s *Service) appendRun(
	artifactID, fingerprint string,
	mintedArtifact bool,
	newImages []photostore.StoredImage,
	uploads []models.UploadInfo,
	ident *vision.IdentificationResult,
	idCached bool,
	gate evidence.Gate,
	route Route,
	val valuation.Result,
) error {
	var records []ledger.Record
	if mintedArtifact {
		records = append(records, ledger.ArtifactRegistered(artifactID))
	}
	for _, img := range newImages {
		records = append(records, ledger.Image(img.ImageID, img.SHA256, img.Name, img.Mime, img.Bytes, img.URL))
	}
	records = append(records,
		ledger.AIRun(artifactID, fingerprint, "identify", map[string]any{
			"brand":        ident.Brand,
			"variant_id":   ident.VariantID,
			"idConfidence": ident.IDConfidence,
			"cached":       idCached,
		}),
		ledger.AIRun(artifactID, fingerprint, "evidence", map[string]any{
			"photos":                len(uploads),
			"requiredPhotosPresent": gate.RequiredPhotosPresent,
			"missing":               len(gate.Missing),
		}),
		ledger.ValuationRun(artifactID, fingerprint, map[string]any{
			"comps_source": val.Source,
			"comps_used":   val.CompsUsed,
			"liquidity":    val.LiquidityScore,
			"mode":         route.Mode,
		}),
		ledger.VerificationEvent(artifactID, fingerprint, route.Mode, route.Reason),
	)
	for _, u := range uploads {
		records = append(records, ledger.ArtifactImage(artifactID, fingerprint, u.PhotoID, u.Role, u.Usable))
	}
	return s.led.Append(records)
}
