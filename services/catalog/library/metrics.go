// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package library

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelf_library_operations_total",
		Help: "Library operations by kind and outcome",
	}, []string{"op", "result"})

	booksGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shelf_library_books",
		Help: "Books currently held by the library",
	})

	categoriesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shelf_library_categories",
		Help: "Categories currently held by the library, root excluded",
	})
)

func recordOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	operationsTotal.WithLabelValues(op, result).Inc()
}
