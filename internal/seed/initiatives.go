package seed

import (
	"context"
	"fmt"
	"io"

	"comproposito/internal/utils"
	"comproposito/pkg/types"
)

type InitiativeStore interface {
	UpsertInitiative(ctx context.Context, initiative *types.Initiative) error
	InitiativeParts(ctx context.Context, initiativeID string) ([]*types.InitiativePart, error)
	UpsertInitiativePart(ctx context.Context, part *types.InitiativePart) error
	DeleteInitiativePart(ctx context.Context, partID string) error
}

const tmtInitiativeID = "iGctuH9dNjGsPbJqfXXFsSc84OLtU1uB"

// TMTInitiative is the toddler mobility trainer template. This file is the
// source of truth for its bill of parts:
// - Parts missing from the database are inserted
// - Parts whose fields changed are updated
// - Parts in the database but not listed here are deleted
//
// To generate new IDs: `go run ./cmd/comproposito nanoid`
func TMTInitiative() (*types.Initiative, []*types.InitiativePart) {
	initiative := &types.Initiative{
		ID:          tmtInitiativeID,
		Name:        "Toddler Mobility Trainer (TMT)",
		Description: utils.StringPtr("Andarilho impresso em 3D para crianças com mobilidade reduzida, baseado no projeto aberto da 3DMobility."),
		IsActive:    true,
	}

	structure := utils.StringPtr(string(types.PartCategoryStructure))
	soft := utils.StringPtr(string(types.PartCategorySoft))
	other := utils.StringPtr(string(types.PartCategoryOther))
	petg := utils.StringPtr("PETG")
	tpu := utils.StringPtr("TPU")

	parts := []*types.InitiativePart{
		{ID: "tQItIL6Byu9MS0QFLF8NvmSK17r6MU74", PartName: "Base do chassis", Category: structure, Material: petg, PrintTimeHours: utils.Float64Ptr(14)},
		{ID: "TWoukVIVcOKQrm9UOZsnpPrJ4EGdGqwm", PartName: "Assento", Category: structure, Material: petg, PrintTimeHours: utils.Float64Ptr(9)},
		{ID: "ISZmqlWvqPEHpPMMzNUDpUkjJRZ4rmzN", PartName: "Encosto", Category: structure, Material: petg, PrintTimeHours: utils.Float64Ptr(7)},
		{ID: "xogATFhnARJlgGubwMuC5Nawh3PjMlcm", PartName: "Pega (Handle)", Category: structure, Material: petg, PrintTimeHours: utils.Float64Ptr(4)},
		{ID: "ra4vrauaSxH5ckd7q2qQvN2YMeskIFvH", PartName: "Suporte de roda dianteiro", Category: structure, Material: petg, PrintTimeHours: utils.Float64Ptr(3)},
		{ID: "m7HzL8I2iBOndcoiYBDAslZJLJRG9c3N", PartName: "Suporte de roda traseiro", Category: structure, Material: petg, PrintTimeHours: utils.Float64Ptr(3)},
		{ID: "0gvIv4oB9Smrw2n8aGOF1rtCmuUiKD8y", PartName: "Jante (Wheel)", Category: structure, Material: petg, PrintTimeHours: utils.Float64Ptr(5)},
		{ID: "tVIKUgP6CGdyDauXmbqVCffA9jU6XxpO", PartName: "Pneu", Category: soft, Material: tpu, PrintTimeHours: utils.Float64Ptr(6)},
		{ID: "oyYm4EWFw22JSyqHF3Xqp48rfwT0kNDm", PartName: "Para-choques", Category: soft, Material: tpu, PrintTimeHours: utils.Float64Ptr(4)},
		{ID: "770N0zSvmRkGNG3wRf2KAbrgzuWPl7TQ", PartName: "Almofada do assento", Category: soft, Material: tpu, PrintTimeHours: utils.Float64Ptr(5)},
		{ID: "fxtPiB33NdSgFvZRb8iCUqb1RcTNK8cH", PartName: "Tampas dos eixos", Category: other, Material: petg, PrintTimeHours: utils.Float64Ptr(1)},
		{ID: "5ikhf6VEWH1D8VkSimWVcvcZMXcxkPm5", PartName: "Clips do cinto", Category: other, Material: petg, PrintTimeHours: utils.Float64Ptr(1)},
	}
	for i, p := range parts {
		p.InitiativeID = initiative.ID
		p.SortOrder = i + 1
	}

	return initiative, parts
}

// SeedInitiatives syncs the database with the in-code templates and reports
// progress to out.
func SeedInitiatives(ctx context.Context, repo InitiativeStore, out io.Writer) error {
	initiative, parts := TMTInitiative()

	fmt.Fprintf(out, "  Upserting initiative: %s\n", initiative.Name)
	if err := repo.UpsertInitiative(ctx, initiative); err != nil {
		return fmt.Errorf("failed to upsert initiative %s: %w", initiative.ID, err)
	}

	seedIDs := make(map[string]bool, len(parts))
	for _, p := range parts {
		seedIDs[p.ID] = true
	}

	existing, err := repo.InitiativeParts(ctx, initiative.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch existing parts: %w", err)
	}

	deleted := 0
	for _, p := range existing {
		if seedIDs[p.ID] {
			continue
		}
		fmt.Fprintf(out, "  Deleting part: %s (id: %s)\n", p.PartName, p.ID)
		if err := repo.DeleteInitiativePart(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to delete part %s: %w", p.ID, err)
		}
		deleted++
	}

	for _, p := range parts {
		if err := repo.UpsertInitiativePart(ctx, p); err != nil {
			return fmt.Errorf("failed to upsert part %s: %w", p.PartName, err)
		}
	}

	fmt.Fprintf(out, "\nSync complete: %d parts upserted, %d deleted\n", len(parts), deleted)
	return nil
}
