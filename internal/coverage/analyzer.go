// Package coverage reports service gaps: properties no zone contains and
// zones without enough active drivers for their property load.
package coverage

import (
    "context"

    "routesync/internal/model"
    "routesync/internal/store"
)

// A zone with no active drivers is empty. A zone with exactly one active
// driver is understaffed: a single absence leaves it uncovered.
const (
    emptyZoneDrivers        = 0
    understaffedZoneDrivers = 1
)

type Analyzer struct {
    Store store.Store
}

func NewAnalyzer(s store.Store) *Analyzer { return &Analyzer{Store: s} }

// Gaps computes the coverage report, optionally scoped to one admin zone.
func (a *Analyzer) Gaps(ctx context.Context, adminZoneID string) (model.CoverageGaps, error) {
    gaps := model.CoverageGaps{
        UnassignedProperties: []model.Property{},
        EmptyZones:           []model.ZoneStaffing{},
        UnderstaffedZones:    []model.ZoneStaffing{},
    }
    props, err := a.Store.UnassignedProperties(ctx, adminZoneID)
    if err != nil {
        return gaps, err
    }
    gaps.UnassignedProperties = props

    staffing, err := a.Store.ZoneStaffing(ctx, adminZoneID)
    if err != nil {
        return gaps, err
    }
    for _, zs := range staffing {
        switch {
        case zs.ActiveDrivers == emptyZoneDrivers:
            gaps.EmptyZones = append(gaps.EmptyZones, zs)
        case zs.ActiveDrivers == understaffedZoneDrivers:
            gaps.UnderstaffedZones = append(gaps.UnderstaffedZones, zs)
        }
    }
    return gaps, nil
}
