// Package classify sends a captured image to a hosted vision model and
// turns the answer into a validated severity/category assessment.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/apex/log"

	"wastemap/capture"
)

var (
	// ErrUnavailable covers network and service faults. The caller may
	// retry with the same image.
	ErrUnavailable = errors.New("classify: service unavailable")

	// ErrMalformed means the service answered but the payload could not
	// be parsed into the expected shape.
	ErrMalformed = errors.New("classify: malformed response")
)

// Severity is the ordinal urgency of the waste accumulation.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Points is the leaderboard weight of a report with this severity.
func (s Severity) Points() int {
	switch s {
	case SeverityLow:
		return 5
	case SeverityHigh:
		return 20
	default:
		return 10
	}
}

// Classification is the validated result of a vision-model call.
type Classification struct {
	Severity   Severity `json:"severity"`
	Confidence float64  `json:"confidence"`
	WasteTypes []string `json:"waste_types"`
	Reason     string   `json:"reason"`
}

// Classifier is implemented by the model backends. Implementations hold no
// session state between calls.
type Classifier interface {
	Classify(ctx context.Context, img *capture.EncodedImage) (*Classification, error)
}

const prompt = `Analyze this image of roadside waste and assess the severity of garbage accumulation.
Classify the garbage into one of the following categories:
- LOW (small, scattered waste, low urgency)
- MEDIUM (visible accumulation, moderate urgency)
- HIGH (large pile, open dumping, high health risk)

Consider:
- Size of the garbage pile
- Density and spread
- Type of waste (plastic, organic, mixed, construction debris)
- Visual indicators of hygiene risk

Output the result as JSON only, no markdown:
{
  "severity": "LOW|MEDIUM|HIGH",
  "confidence": <number between 0.0 and 1.0>,
  "waste_types": ["plastic", "organic", "mixed", "construction", ...],
  "reason": "<short, one-sentence explanation>"
}`

// rawClassification is the untrusted service payload before normalization.
type rawClassification struct {
	Severity   string   `json:"severity"`
	Confidence float64  `json:"confidence"`
	WasteTypes []string `json:"waste_types"`
	Reason     string   `json:"reason"`
}

// parseAndNormalize is the trust boundary between the model and the rest of
// the system. The declared response schema is not relied upon: severity is
// coerced into the closed set, confidence is clamped and waste types get a
// default. Only structurally unparseable payloads are rejected.
func parseAndNormalize(content string) (*Classification, error) {
	content, err := extractJSONFromMarkdown(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		log.Errorf("Unparseable classification payload %q: %v", content, err)
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return normalize(&raw), nil
}

func normalize(raw *rawClassification) *Classification {
	c := &Classification{
		Confidence: raw.Confidence,
		Reason:     strings.TrimSpace(raw.Reason),
	}

	switch Severity(strings.ToUpper(strings.TrimSpace(raw.Severity))) {
	case SeverityLow:
		c.Severity = SeverityLow
	case SeverityMedium:
		c.Severity = SeverityMedium
	case SeverityHigh:
		c.Severity = SeverityHigh
	default:
		// Severity drives routing, not safety-critical action, so an
		// out-of-set value degrades to MEDIUM instead of failing the run.
		log.Warnf("Out-of-set severity %q from the model, using MEDIUM", raw.Severity)
		c.Severity = SeverityMedium
	}

	if c.Confidence < 0 {
		c.Confidence = 0
	} else if c.Confidence > 1 {
		c.Confidence = 1
	}

	for _, wt := range raw.WasteTypes {
		if wt = strings.ToLower(strings.TrimSpace(wt)); wt != "" {
			c.WasteTypes = append(c.WasteTypes, wt)
		}
	}
	if len(c.WasteTypes) == 0 {
		c.WasteTypes = []string{"mixed"}
	}

	if c.Reason == "" {
		c.Reason = "No description provided"
	}

	return c
}

var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSONFromMarkdown tolerates models that wrap the JSON answer in a
// markdown code fence despite being told not to.
func extractJSONFromMarkdown(content string) (string, error) {
	content = strings.TrimSpace(content)
	if m := jsonFenceRe.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}
	if content == "" {
		return "", fmt.Errorf("empty model response")
	}
	return content, nil
}
