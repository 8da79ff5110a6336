package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
	"github.com/JustEmoBut/scraper-backend/internal/infrastructure/memory"
)

func TestSpecificationService_Create(t *testing.T) {
	ctx := context.Background()
	specs := memory.NewSpecificationStore()
	svc := NewSpecificationService(specs, nil, zerolog.Nop())

	tests := []struct {
		name    string
		req     CreateSpecificationRequest
		wantErr error
	}{
		{
			name: "valid with display category",
			req: CreateSpecificationRequest{
				ProductName: "  Kingston Fury DDR5 32GB 6000MHz ",
				Category:    "RAM",
				SpecFields:  map[string]any{"kapasite": 32.0, "tip": "DDR5"},
			},
		},
		{
			name: "turkish category name",
			req:  CreateSpecificationRequest{ProductName: "RTX 5070", Category: "Ekran Kartı"},
		},
		{
			name:    "missing name",
			req:     CreateSpecificationRequest{ProductName: "  ", Category: "RAM"},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "unknown category",
			req:     CreateSpecificationRequest{ProductName: "Toaster 3000", Category: "Toaster"},
			wantErr: domain.ErrInvalidCategory,
		},
		{
			name: "field outside template",
			req: CreateSpecificationRequest{
				ProductName: "DDR5 32GB",
				Category:    "RAM",
				SpecFields:  map[string]any{"renk": "kirmizi"},
			},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name: "bad select option",
			req: CreateSpecificationRequest{
				ProductName: "DDR5 32GB",
				Category:    "RAM",
				SpecFields:  map[string]any{"tip": "DDR9"},
			},
			wantErr: domain.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := svc.Create(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if spec.ID == "" || !spec.IsActive || spec.Source != "manual" {
				t.Errorf("spec = %+v", spec)
			}
		})
	}

	t.Run("clean name follows product name", func(t *testing.T) {
		spec, err := svc.Create(ctx, CreateSpecificationRequest{ProductName: "RTX 5070 Ti!", Category: "GraphicsCard"})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if spec.CleanProductName != "rtx 5070 ti" {
			t.Errorf("CleanProductName = %q, want %q", spec.CleanProductName, "rtx 5070 ti")
		}

		renamed := "RTX 5070 Super"
		updated, err := svc.Update(ctx, spec.ID, UpdateSpecificationRequest{ProductName: &renamed})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.CleanProductName != "rtx 5070 super" {
			t.Errorf("CleanProductName after update = %q", updated.CleanProductName)
		}
	})
}

func TestSpecificationService_CreateWithAutoMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, cpu("p1", "Ryzen 5 7600X 4.7GHz"))
	svc := NewSpecificationService(f.specs, f.svc, zerolog.Nop())

	spec, err := svc.Create(ctx, CreateSpecificationRequest{
		ProductName: "AMD Ryzen 5 7600X",
		Category:    "İşlemci",
		AutoMatch:   true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(spec.Matches) != 1 || spec.Matches[0].ProductID != "p1" {
		t.Errorf("matches = %+v, want p1", spec.Matches)
	}
}

func TestSpecificationService_UpdateAndGet(t *testing.T) {
	ctx := context.Background()
	specs := memory.NewSpecificationStore()
	svc := NewSpecificationService(specs, nil, zerolog.Nop())

	spec, err := svc.Create(ctx, CreateSpecificationRequest{ProductName: "Samsung 990 PRO 2TB", Category: "SSD"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("get counts views", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if _, err := svc.Get(ctx, spec.ID); err != nil {
				t.Fatalf("Get() error = %v", err)
			}
		}
		got, _ := specs.Get(ctx, spec.ID)
		if got.Stats.ViewCount != 2 {
			t.Errorf("ViewCount = %d, want 2", got.Stats.ViewCount)
		}
	})

	t.Run("empty rename is rejected", func(t *testing.T) {
		empty := " "
		_, err := svc.Update(ctx, spec.ID, UpdateSpecificationRequest{ProductName: &empty})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("deactivate and verify", func(t *testing.T) {
		inactive := false
		by := "curator"
		got, err := svc.Update(ctx, spec.ID, UpdateSpecificationRequest{IsActive: &inactive, VerifiedBy: &by})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.IsActive || got.VerifiedBy != "curator" || got.VerifiedAt == nil {
			t.Errorf("spec = %+v", got)
		}
		active, _ := svc.List(ctx, domain.SpecificationFilter{ActiveOnly: true})
		if len(active) != 0 {
			t.Errorf("active specifications = %d, want 0", len(active))
		}
	})

	t.Run("missing specification", func(t *testing.T) {
		if _, err := svc.Get(ctx, "missing"); !errors.Is(err, domain.ErrSpecificationNotFound) {
			t.Errorf("Get() error = %v, want ErrSpecificationNotFound", err)
		}
		if _, err := svc.Update(ctx, "missing", UpdateSpecificationRequest{}); !errors.Is(err, domain.ErrSpecificationNotFound) {
			t.Errorf("Update() error = %v, want ErrSpecificationNotFound", err)
		}
	})

	t.Run("list rejects unknown category", func(t *testing.T) {
		_, err := svc.List(ctx, domain.SpecificationFilter{Category: "Toaster"})
		if !errors.Is(err, domain.ErrInvalidCategory) {
			t.Errorf("error = %v, want ErrInvalidCategory", err)
		}
	})
}

func TestSpecificationService_Template(t *testing.T) {
	svc := NewSpecificationService(memory.NewSpecificationStore(), nil, zerolog.Nop())

	c, fields, err := svc.Template("güç kaynağı")
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	if c != domain.CategoryPowerSupply || len(fields) == 0 {
		t.Errorf("Template() = %s with %d fields", c, len(fields))
	}

	if _, _, err := svc.Template("Toaster"); !errors.Is(err, domain.ErrInvalidCategory) {
		t.Errorf("error = %v, want ErrInvalidCategory", err)
	}
}
