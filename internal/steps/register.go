// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-10-18

package steps

import (
	"github.com/similigh/jira-alert-sync/internal/core/pipeline"
)

// RegisterAll registers all built-in steps with the registry.
func RegisterAll(r *pipeline.Registry) {
	r.Register("fetch_epic", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewFetchEpic(deps), nil
	})

	r.Register("alert_filter", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewAlertFilter(deps), nil
	})

	r.Register("reconciler", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewReconciler(deps), nil
	})
}
