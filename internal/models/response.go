package models

import "time"

type UploadPhotoResponse struct {
	PhotoID string `json:"photo_id"`
	Deduped bool   `json:"deduped"`
}

type UploadInfo struct {
	PhotoID string `json:"photo_id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Usable  bool   `json:"usable"`
	Deduped bool   `json:"deduped"`
	URL     string `json:"url"`
}

type QualityInfo struct {
	BlurScore  float64  `json:"blurScore"`
	GlareScore float64  `json:"glareScore"`
	CropScore  float64  `json:"cropScore"`
	Issues     []string `json:"issues"`
}

type PhotoAssessment struct {
	Name    string      `json:"name"`
	Role    string      `json:"role"`
	Usable  bool        `json:"usable"`
	Quality QualityInfo `json:"quality"`
}

type IdentifyStage struct {
	Brand                   string  `json:"brand"`
	Family                  string  `json:"family"`
	Model                   string  `json:"model"`
	Pattern                 string  `json:"pattern"`
	Size                    string  `json:"size"`
	ThrowSide               string  `json:"throwSide"`
	Web                     string  `json:"web"`
	Leather                 string  `json:"leather"`
	MadeIn                  string  `json:"madeIn"`
	VariantID               string  `json:"variantId"`
	IDConfidence            float64 `json:"idConfidence"`
	VariantConfirmed        bool    `json:"variantConfirmed"`
	ConditionConfidence     float64 `json:"conditionConfidence"`
	StampText               string  `json:"stamp_text"`
	CountryStamp            string  `json:"country_stamp"`
	ConflictingBrandSignals bool    `json:"conflictingBrandSignals"`
	Cached                  bool    `json:"cached"`
}

type EvidenceStage struct {
	Photos                []PhotoAssessment `json:"photos"`
	RequiredPhotosPresent bool              `json:"requiredPhotosPresent"`
	MissingRoles          []string          `json:"missingRoles"`
	BundleFingerprint     string            `json:"bundleFingerprint"`
}

type VariantMatch struct {
	VariantID  string  `json:"variant_id"`
	Similarity float64 `json:"similarity"`
}

type ValuationStage struct {
	PointEstimate      *float64 `json:"pointEstimate"`
	RangeLow           *float64 `json:"rangeLow"`
	RangeHigh          *float64 `json:"rangeHigh"`
	CompsUsed          int      `json:"compsUsed"`
	CompsSource        string   `json:"compsSource"`
	LiquidityScore     int      `json:"liquidityScore"`
	SuggestedListPrice *float64 `json:"suggestedListPrice"`
}

type RecommendationStage struct {
	Mode            string `json:"mode"`
	Reason          string `json:"reason"`
	ConfidenceLabel string `json:"confidenceLabel"`
}

type Stages struct {
	Identify       IdentifyStage       `json:"identify"`
	Evidence       EvidenceStage       `json:"evidence"`
	Valuation      ValuationStage      `json:"valuation"`
	Recommendation RecommendationStage `json:"recommendation"`
}

type AppraisalSummary struct {
	Brand              string         `json:"brand"`
	Family             string         `json:"family"`
	Model              string         `json:"model"`
	Pattern            string         `json:"pattern"`
	VariantID          string         `json:"variant_id"`
	VariantConfirmed   bool           `json:"variantConfirmed"`
	Mode               string         `json:"mode"`
	ConfidenceLabel    string         `json:"confidenceLabel"`
	PointEstimate      *float64       `json:"pointEstimate"`
	RangeLow           *float64       `json:"rangeLow"`
	RangeHigh          *float64       `json:"rangeHigh"`
	SuggestedListPrice *float64       `json:"suggestedListPrice"`
	LiquidityScore     int            `json:"liquidityScore"`
	TopMatches         []VariantMatch `json:"topMatches"`
}

type CacheInfo struct {
	Hit bool   `json:"hit"`
	Key string `json:"key"`
}

type AnalyzeResponse struct {
	ArtifactID string           `json:"artifactId"`
	Uploads    []UploadInfo     `json:"uploads"`
	Stages     Stages           `json:"stages"`
	Appraisal  AppraisalSummary `json:"appraisal"`
	Cache      CacheInfo        `json:"cache"`
}

type AIRunSummary struct {
	RunID      string    `json:"run_id"`
	ArtifactID string    `json:"artifact_id"`
	BundleHash string    `json:"bundle_hash"`
	Stage      string    `json:"stage"`
	CreatedAt  time.Time `json:"created_at"`
}

type ValuationRunSummary struct {
	RunID       string    `json:"run_id"`
	ArtifactID  string    `json:"artifact_id"`
	BundleHash  string    `json:"bundle_hash"`
	CompsSource string    `json:"comps_source"`
	CompsUsed   int       `json:"comps_used"`
	CreatedAt   time.Time `json:"created_at"`
}

type RunsResponse struct {
	Counts            map[string]int        `json:"counts"`
	LastAIRuns        []AIRunSummary        `json:"last_ai_runs"`
	LastValuationRuns []ValuationRunSummary `json:"last_valuation_runs"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
