package skill

import (
	"fmt"
	"strings"
)

// validateSkills performs all structural checks on the skill set: duplicate
// ids, dangling dependency ids, cycles, and a missing root. Returns a
// combined error describing every problem found, or nil.
func validateSkills(skills []Skill) error {
	var errs []string

	idSet := make(map[string]bool, len(skills))
	for _, s := range skills {
		if s.ID == "" {
			errs = append(errs, "skill with empty id")
			continue
		}
		if idSet[s.ID] {
			errs = append(errs, fmt.Sprintf("duplicate skill id: %q", s.ID))
		}
		idSet[s.ID] = true
	}

	// A dependency on an unknown id would leave the skill permanently
	// locked at runtime, so it is rejected here instead.
	for _, s := range skills {
		for _, dep := range s.Dependencies {
			if !idSet[dep] {
				errs = append(errs, fmt.Sprintf("skill %q depends on unknown skill %q", s.ID, dep))
			}
			if dep == s.ID {
				errs = append(errs, fmt.Sprintf("skill %q depends on itself", s.ID))
			}
		}
	}

	// Cycle check via Kahn's algorithm.
	inDegree := make(map[string]int, len(skills))
	dependents := make(map[string][]string)
	for _, s := range skills {
		inDegree[s.ID] = len(s.Dependencies)
		for _, dep := range s.Dependencies {
			dependents[dep] = append(dependents[dep], s.ID)
		}
	}
	var queue []string
	for _, s := range skills {
		if inDegree[s.ID] == 0 {
			queue = append(queue, s.ID)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range dependents[id] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if visited < len(skills) {
		var cycleNodes []string
		for _, s := range skills {
			if inDegree[s.ID] > 0 {
				cycleNodes = append(cycleNodes, s.ID)
			}
		}
		errs = append(errs, fmt.Sprintf("dependency cycle involving: %s", strings.Join(cycleNodes, ", ")))
	}

	hasRoot := false
	for _, s := range skills {
		if len(s.Dependencies) == 0 {
			hasRoot = true
			break
		}
	}
	if !hasRoot {
		errs = append(errs, "no skills without dependencies (at least one root required)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("skill catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
