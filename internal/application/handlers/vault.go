package handlers

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/services"
)

// VaultHandler handles record and record type operations for a logged-in session.
type VaultHandler struct {
	catalog *services.CatalogService
	records *services.RecordService
	deletes *services.DeleteController

	startOnce sync.Once
	startErr  error
}

// NewVaultHandler creates a new VaultHandler.
func NewVaultHandler(catalog *services.CatalogService, records *services.RecordService, deletes *services.DeleteController) *VaultHandler {
	return &VaultHandler{
		catalog: catalog,
		records: records,
		deletes: deletes,
	}
}

// TypeForm pairs a record type with the form used to enter its records.
type TypeForm struct {
	Type entities.RecordType
	Kind entities.Kind
	Form entities.FormDescriptor
}

// HandleListRecords returns all records with their type names.
func (h *VaultHandler) HandleListRecords(ctx context.Context, s entities.Session) ([]entities.RecordWithType, error) {
	if err := services.RequireLoggedIn(s); err != nil {
		return nil, err
	}
	return h.records.ListWithType(ctx)
}

// HandleOfferable returns the types that may be picked for a new record.
func (h *VaultHandler) HandleOfferable(ctx context.Context, s entities.Session) ([]entities.RecordType, error) {
	if err := services.RequireLoggedIn(s); err != nil {
		return nil, err
	}
	return h.catalog.Offerable(ctx)
}

// HandleForm resolves a type reference (id or name) to its form.
func (h *VaultHandler) HandleForm(ctx context.Context, s entities.Session, ref string) (*TypeForm, error) {
	if err := services.RequireLoggedIn(s); err != nil {
		return nil, err
	}
	t, err := h.resolveType(ctx, ref)
	if err != nil {
		return nil, err
	}
	kind := entities.KindOf(*t)
	return &TypeForm{
		Type: *t,
		Kind: kind,
		Form: entities.FormFor(kind),
	}, nil
}

// HandleAdd adds a record entered through the add flow.
func (h *VaultHandler) HandleAdd(ctx context.Context, s entities.Session, rec *entities.Record) error {
	if err := services.RequireLoggedIn(s); err != nil {
		return err
	}
	return h.records.Add(ctx, rec)
}

// HandleEdit saves a record changed through the edit flow.
func (h *VaultHandler) HandleEdit(ctx context.Context, s entities.Session, rec *entities.Record) error {
	if err := services.RequireLoggedIn(s); err != nil {
		return err
	}
	return h.records.Update(ctx, rec)
}

// HandleGet returns a record by id, or nil if not found.
func (h *VaultHandler) HandleGet(ctx context.Context, s entities.Session, id int64) (*entities.Record, error) {
	if err := services.RequireLoggedIn(s); err != nil {
		return nil, err
	}
	return h.records.Get(ctx, id)
}

// HandleOpenList starts the presentation list once and returns a subscription
// to it.
func (h *VaultHandler) HandleOpenList(ctx context.Context, s entities.Session) (*services.Subscription[[]entities.RecordWithType], error) {
	if err := services.RequireLoggedIn(s); err != nil {
		return nil, err
	}
	h.startOnce.Do(func() {
		h.startErr = h.deletes.Start(ctx)
	})
	if h.startErr != nil {
		return nil, h.startErr
	}
	return h.deletes.Subscribe(ctx)
}

// HandleRequestDelete hides a record and starts its grace period.
func (h *VaultHandler) HandleRequestDelete(ctx context.Context, s entities.Session, id int64) error {
	if err := services.RequireLoggedIn(s); err != nil {
		return err
	}
	return h.deletes.RequestDelete(ctx, id)
}

// HandleUndo restores a record inside its grace period.
func (h *VaultHandler) HandleUndo(ctx context.Context, s entities.Session, id int64) error {
	if err := services.RequireLoggedIn(s); err != nil {
		return err
	}
	return h.deletes.Undo(ctx, id)
}

// HandleSettle commits all pending deletes now. It does not require a
// logged-in session so that logout can flush the holding set.
func (h *VaultHandler) HandleSettle(ctx context.Context) error {
	return h.deletes.Settle(ctx)
}

// HandleListTypes returns the record type catalog.
func (h *VaultHandler) HandleListTypes(ctx context.Context, s entities.Session) ([]entities.RecordType, error) {
	if err := services.RequireLoggedIn(s); err != nil {
		return nil, err
	}
	return h.catalog.List(ctx)
}

// HandleAddType creates a custom record type.
func (h *VaultHandler) HandleAddType(ctx context.Context, s entities.Session, name string, unique bool) (*entities.RecordType, error) {
	if err := services.RequireLoggedIn(s); err != nil {
		return nil, err
	}
	return h.catalog.AddCustom(ctx, name, unique)
}

// HandleRemoveType deletes a custom record type by id or name.
func (h *VaultHandler) HandleRemoveType(ctx context.Context, s entities.Session, ref string) error {
	if err := services.RequireLoggedIn(s); err != nil {
		return err
	}
	t, err := h.resolveType(ctx, ref)
	if err != nil {
		return err
	}
	return h.catalog.Delete(ctx, *t)
}

// HandleResetTypes restores the built-in catalog.
func (h *VaultHandler) HandleResetTypes(ctx context.Context, s entities.Session) error {
	if err := services.RequireLoggedIn(s); err != nil {
		return err
	}
	return h.catalog.Reset(ctx)
}

// HandlePopulate replaces the vault with demonstration data.
func (h *VaultHandler) HandlePopulate(ctx context.Context, s entities.Session) error {
	if err := services.RequireLoggedIn(s); err != nil {
		return err
	}
	return h.records.DebugPopulate(ctx)
}

// resolveType finds a type by numeric id, or else by case-insensitive name.
func (h *VaultHandler) resolveType(ctx context.Context, ref string) (*entities.RecordType, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		t, err := h.catalog.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, &services.ValidationError{Field: "type", Err: services.ErrUnknownType}
		}
		return t, nil
	}

	types, err := h.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range types {
		if strings.EqualFold(types[i].Name, ref) {
			return &types[i], nil
		}
	}
	return nil, &services.ValidationError{Field: "type", Err: services.ErrUnknownType}
}
