package scanning

import (
	"encoding/json"
	"fmt"
	"image"
	"strings"
)

// boxScale is the coordinate range vision models use for box_2d values
const boxScale = 1000

// visionLines is the JSON document vision models are asked to return
type visionLines struct {
	Lines []struct {
		Text  string    `json:"text"`
		Box2D []float64 `json:"box_2d"` // [ymin, xmin, ymax, xmax] in 0..1000
	} `json:"lines"`
}

// cleanResponse strips markdown code fences from a model response
func cleanResponse(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// parseLinesJSON parses a model's line list and maps its normalized boxes
// onto a width × height image
func parseLinesJSON(text string, width, height int) ([]Line, error) {
	text = cleanResponse(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var doc visionLines
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	bounds := image.Rect(0, 0, width, height)
	lines := make([]Line, 0, len(doc.Lines))
	for i, l := range doc.Lines {
		t := strings.TrimSpace(l.Text)
		if t == "" {
			continue
		}
		line := Line{Text: t, Number: i}
		if len(l.Box2D) == 4 {
			sx := float64(width) / boxScale
			sy := float64(height) / boxScale
			line.Box = image.Rect(
				int(l.Box2D[1]*sx), int(l.Box2D[0]*sy),
				int(l.Box2D[3]*sx), int(l.Box2D[2]*sy),
			).Intersect(bounds)
		}
		lines = append(lines, line)
	}
	return lines, nil
}
