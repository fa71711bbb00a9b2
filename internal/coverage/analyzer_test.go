package coverage

import (
    "context"
    "testing"

    "routesync/internal/model"
    "routesync/internal/store"
)

func TestGaps(t *testing.T) {
    m := store.NewMemory()
    zoneA := m.AddServiceZone(model.ServiceZone{Name: "A", Active: true})
    zoneB := m.AddServiceZone(model.ServiceZone{Name: "B", Active: true})
    zoneC := m.AddServiceZone(model.ServiceZone{Name: "C", Active: true})

    // A: no drivers, B: one driver, C: three drivers
    m.AddDriver(model.Driver{Name: "b1", Active: true, ServiceZoneID: zoneB.ID})
    for _, n := range []string{"c1", "c2", "c3"} {
        m.AddDriver(model.Driver{Name: n, Active: true, ServiceZoneID: zoneC.ID})
    }

    m.AddProperty(model.Property{Address: "1 Elm St", Status: "approved", ServiceZoneID: zoneA.ID})
    m.AddProperty(model.Property{Address: "2 Elm St", Status: "approved", ServiceZoneID: zoneB.ID})
    m.AddProperty(model.Property{Address: "3 Elm St", Status: "approved", ServiceZoneID: zoneC.ID})
    orphan := m.AddProperty(model.Property{Address: "4 Elm St", Status: "approved"})
    m.AddProperty(model.Property{Address: "5 Elm St", Status: "pending"})

    gaps, err := NewAnalyzer(m).Gaps(context.Background(), "")
    if err != nil {
        t.Fatalf("gaps: %v", err)
    }
    if len(gaps.UnassignedProperties) != 1 || gaps.UnassignedProperties[0].ID != orphan.ID {
        t.Fatalf("unassigned: %+v", gaps.UnassignedProperties)
    }
    if len(gaps.EmptyZones) != 1 || gaps.EmptyZones[0].Zone.ID != zoneA.ID {
        t.Fatalf("empty zones: %+v", gaps.EmptyZones)
    }
    if len(gaps.UnderstaffedZones) != 1 || gaps.UnderstaffedZones[0].Zone.ID != zoneB.ID {
        t.Fatalf("understaffed zones: %+v", gaps.UnderstaffedZones)
    }
}

func TestGapsAdminZoneFilter(t *testing.T) {
    m := store.NewMemory()
    north := m.AddServiceZone(model.ServiceZone{Name: "North", Active: true, AdminZoneID: "az-1"})
    m.AddServiceZone(model.ServiceZone{Name: "South", Active: true, AdminZoneID: "az-2"})

    gaps, err := NewAnalyzer(m).Gaps(context.Background(), "az-1")
    if err != nil {
        t.Fatalf("gaps: %v", err)
    }
    if len(gaps.EmptyZones) != 1 || gaps.EmptyZones[0].Zone.ID != north.ID {
        t.Fatalf("filter should keep only az-1 zones: %+v", gaps.EmptyZones)
    }
}
