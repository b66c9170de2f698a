// Package evidence assigns semantic roles to uploaded glove photos and scores
// their quality. Scoring is deliberately deterministic: it is derived from a
// hash of (filename, byte size), never from pixel content, so the same file
// always produces the same assessment. Caching correctness depends on that.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

const (
	RolePalm       = "PALM"
	RoleBack       = "BACK"
	RoleLiner      = "LINER"
	RoleWristPatch = "WRIST_PATCH"
	RoleStamps     = "STAMPS"
	RoleHeel       = "HEEL"
	RoleThumbSide  = "THUMB_SIDE"
	RolePinkyLoop  = "PINKY_LOOP"
	RoleOther      = "OTHER"
)

// roleRules are evaluated in priority order; the first rule whose keyword
// appears in the lowercased filename wins.
var roleRules = []struct {
	role     string
	keywords []string
}{
	{RolePalm, []string{"palm"}},
	{RoleBack, []string{"back"}},
	{RoleLiner, []string{"liner"}},
	{RoleWristPatch, []string{"wrist", "patch"}},
	{RoleStamps, []string{"stamp"}},
	{RoleHeel, []string{"heel"}},
	{RoleThumbSide, []string{"thumb"}},
	{RolePinkyLoop, []string{"pinky"}},
}

// requiredRoles (P0) must be present and usable for an appraisal to proceed;
// recommendedRoles (P1) only affect messaging.
var (
	requiredRoles    = []string{RoleBack, RolePalm}
	recommendedRoles = []string{RoleLiner, RoleWristPatch, RoleStamps}
)

const (
	blurThreshold  = 0.65
	glareThreshold = 0.70
	cropThreshold  = 0.70
)

type Quality struct {
	BlurScore  float64
	GlareScore float64
	CropScore  float64
	Issues     []string
}

type Assessment struct {
	Name    string
	Role    string
	Usable  bool
	Quality Quality
}

func ClassifyRole(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range roleRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.role
			}
		}
	}
	return RoleOther
}

// QualityScores derives blur/glare/crop pseudo-scores in [0,1] from an
// FNV-1a 64 hash of "name:byteSize". The three scores are the hash's three
// low base-1000 digit groups divided by 1000. The hash choice is part of the
// assessment contract, not an implementation detail.
func QualityScores(name string, byteSize int64) Quality {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%d", name, byteSize)
	sum := h.Sum64()

	q := Quality{
		BlurScore:  float64(sum%1000) / 1000,
		GlareScore: float64((sum/1000)%1000) / 1000,
		CropScore:  float64((sum/1000000)%1000) / 1000,
		Issues:     []string{},
	}
	if q.BlurScore > blurThreshold {
		q.Issues = append(q.Issues, "blurry")
	}
	if q.GlareScore > glareThreshold {
		q.Issues = append(q.Issues, "glare")
	}
	if q.CropScore > cropThreshold {
		q.Issues = append(q.Issues, "poor_crop")
	}
	return q
}

func Assess(name string, byteSize int64) Assessment {
	q := QualityScores(name, byteSize)
	return Assessment{
		Name:    name,
		Role:    ClassifyRole(name),
		Usable:  len(q.Issues) == 0,
		Quality: q,
	}
}

type BundleItem struct {
	SHA256 string
	Role   string
	Usable bool
}

// BundleFingerprint hashes the sorted set of (sha256, role, usable) triples.
// Upload order does not affect the fingerprint, so permuted resubmissions of
// the same photo set land on the same cache entries.
func BundleFingerprint(items []BundleItem) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("%s|%s|%t", it.SHA256, it.Role, it.Usable)
	}
	sort.Strings(lines)
	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

type Gate struct {
	RequiredPhotosPresent bool
	Missing               []string
}

// EvaluateGate checks photo coverage. A required role counts only when at
// least one usable photo carries it. Missing-role messages list required
// gaps before recommended ones.
func EvaluateGate(assessments []Assessment) Gate {
	usableByRole := make(map[string]bool)
	presentByRole := make(map[string]bool)
	for _, a := range assessments {
		presentByRole[a.Role] = true
		if a.Usable {
			usableByRole[a.Role] = true
		}
	}

	g := Gate{RequiredPhotosPresent: true, Missing: []string{}}
	for _, role := range requiredRoles {
		if !usableByRole[role] {
			g.RequiredPhotosPresent = false
			g.Missing = append(g.Missing, fmt.Sprintf("missing required photo: %s", strings.ToLower(role)))
		}
	}
	for _, role := range recommendedRoles {
		if !presentByRole[role] {
			g.Missing = append(g.Missing, fmt.Sprintf("missing recommended photo: %s", strings.ToLower(role)))
		}
	}
	return g
}
