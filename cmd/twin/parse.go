package main

import (
	"fmt"
	"strconv"
	"strings"

	"twinline/internal/twin"
)

// parseIntervention reads type:target:intensity[:months], e.g. investment:ai:0.8:6.
func parseIntervention(s string) (twin.Intervention, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 3 || len(parts) > 4 {
		return twin.Intervention{}, fmt.Errorf("intervention %q: want type:target:intensity[:months]", s)
	}
	iv := twin.Intervention{
		Type:   twin.InterventionType(strings.ToLower(strings.TrimSpace(parts[0]))),
		Target: strings.TrimSpace(parts[1]),
	}
	if iv.Type == "" {
		return twin.Intervention{}, fmt.Errorf("intervention %q: type is required", s)
	}
	intensity, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return twin.Intervention{}, fmt.Errorf("intervention %q: intensity: %w", s, err)
	}
	iv.Intensity = intensity
	if len(parts) == 4 {
		months, err := strconv.Atoi(strings.TrimSpace(parts[3]))
		if err != nil || months < 0 {
			return twin.Intervention{}, fmt.Errorf("intervention %q: months must be a non-negative integer", s)
		}
		iv.DurationMonths = months
	}
	return iv, nil
}

func parseInterventions(specs []string) ([]twin.Intervention, error) {
	out := make([]twin.Intervention, 0, len(specs))
	for _, s := range specs {
		iv, err := parseIntervention(s)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}
