/*
rows.go - Row structs and conversions between SQL rows and domain types

Dates persist as YYYY-MM-DD strings, timestamps as RFC3339, decimals as
their exact string form. Conversion failures on read mean corrupt data and
surface as errors rather than silent zeroes.
*/
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rangaswamythommandra/asset-management/inventory"
)

type baseRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Location    string `db:"location"`
	Description string `db:"description"`
	CreatedAt   string `db:"created_at"`
}

func (r baseRow) toBase() inventory.Base {
	return inventory.Base{
		ID:          inventory.BaseID(r.ID),
		Name:        r.Name,
		Location:    r.Location,
		Description: r.Description,
		CreatedAt:   parseTime(r.CreatedAt),
	}
}

type assetTypeRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Category    string `db:"category"`
	Description string `db:"description"`
	CreatedAt   string `db:"created_at"`
}

func (r assetTypeRow) toAssetType() inventory.AssetType {
	return inventory.AssetType{
		ID:          inventory.AssetTypeID(r.ID),
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		CreatedAt:   parseTime(r.CreatedAt),
	}
}

type assetRow struct {
	ID            string `db:"id"`
	SerialNumber  string `db:"serial_number"`
	AssetTypeID   string `db:"asset_type_id"`
	BaseID        string `db:"base_id"`
	Status        string `db:"status"`
	Description   string `db:"description"`
	PurchaseDate  string `db:"purchase_date"`
	PurchasePrice string `db:"purchase_price"`
	CreatedAt     string `db:"created_at"`
}

func (r assetRow) toAsset() (inventory.Asset, error) {
	price, err := parseDecimal(r.PurchasePrice)
	if err != nil {
		return inventory.Asset{}, fmt.Errorf("asset %s: %w", r.ID, err)
	}
	date, err := parseDate(r.PurchaseDate)
	if err != nil {
		return inventory.Asset{}, fmt.Errorf("asset %s: %w", r.ID, err)
	}
	return inventory.Asset{
		ID:            inventory.AssetID(r.ID),
		SerialNumber:  r.SerialNumber,
		AssetTypeID:   inventory.AssetTypeID(r.AssetTypeID),
		BaseID:        inventory.BaseID(r.BaseID),
		Status:        inventory.AssetStatus(r.Status),
		Description:   r.Description,
		PurchaseDate:  date,
		PurchasePrice: price,
		CreatedAt:     parseTime(r.CreatedAt),
	}, nil
}

type userRow struct {
	ID           string         `db:"id"`
	Username     string         `db:"username"`
	PasswordHash string         `db:"password_hash"`
	Role         string         `db:"role"`
	BaseID       sql.NullString `db:"base_id"`
	CreatedAt    string         `db:"created_at"`
}

func (r userRow) toUser() inventory.User {
	u := inventory.User{
		ID:           inventory.UserID(r.ID),
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         inventory.Role(r.Role),
		CreatedAt:    parseTime(r.CreatedAt),
	}
	if r.BaseID.Valid {
		id := inventory.BaseID(r.BaseID.String)
		u.BaseID = &id
	}
	return u
}

type purchaseRow struct {
	ID          string `db:"id"`
	AssetTypeID string `db:"asset_type_id"`
	BaseID      string `db:"base_id"`
	Quantity    int64  `db:"quantity"`
	UnitPrice   string `db:"unit_price"`
	TotalAmount string `db:"total_amount"`
	Supplier    string `db:"supplier"`
	Date        string `db:"date"`
	CreatedBy   string `db:"created_by"`
	CreatedAt   string `db:"created_at"`
}

func (r purchaseRow) toPurchase() (inventory.Purchase, error) {
	unit, err := parseDecimal(r.UnitPrice)
	if err != nil {
		return inventory.Purchase{}, fmt.Errorf("purchase %s: %w", r.ID, err)
	}
	total, err := parseDecimal(r.TotalAmount)
	if err != nil {
		return inventory.Purchase{}, fmt.Errorf("purchase %s: %w", r.ID, err)
	}
	date, err := parseDate(r.Date)
	if err != nil {
		return inventory.Purchase{}, fmt.Errorf("purchase %s: %w", r.ID, err)
	}
	return inventory.Purchase{
		ID:          inventory.PurchaseID(r.ID),
		AssetTypeID: inventory.AssetTypeID(r.AssetTypeID),
		BaseID:      inventory.BaseID(r.BaseID),
		Quantity:    r.Quantity,
		UnitPrice:   unit,
		TotalAmount: total,
		Supplier:    r.Supplier,
		Date:        date,
		CreatedBy:   inventory.UserID(r.CreatedBy),
		CreatedAt:   parseTime(r.CreatedAt),
	}, nil
}

type transferRow struct {
	ID         string         `db:"id"`
	AssetID    string         `db:"asset_id"`
	FromBaseID string         `db:"from_base_id"`
	ToBaseID   string         `db:"to_base_id"`
	Date       string         `db:"date"`
	Reason     string         `db:"reason"`
	Status     string         `db:"status"`
	CreatedBy  string         `db:"created_by"`
	DecidedBy  sql.NullString `db:"decided_by"`
	Version    int64          `db:"version"`
	CreatedAt  string         `db:"created_at"`
	UpdatedAt  string         `db:"updated_at"`
}

func (r transferRow) toTransfer() (inventory.Transfer, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return inventory.Transfer{}, fmt.Errorf("transfer %s: %w", r.ID, err)
	}
	t := inventory.Transfer{
		ID:         inventory.TransferID(r.ID),
		AssetID:    inventory.AssetID(r.AssetID),
		FromBaseID: inventory.BaseID(r.FromBaseID),
		ToBaseID:   inventory.BaseID(r.ToBaseID),
		Date:       date,
		Reason:     r.Reason,
		Status:     inventory.TransferStatus(r.Status),
		CreatedBy:  inventory.UserID(r.CreatedBy),
		Version:    r.Version,
		CreatedAt:  parseTime(r.CreatedAt),
		UpdatedAt:  parseTime(r.UpdatedAt),
	}
	if r.DecidedBy.Valid {
		id := inventory.UserID(r.DecidedBy.String)
		t.DecidedBy = &id
	}
	return t, nil
}

type assignmentRow struct {
	ID           string         `db:"id"`
	AssetID      string         `db:"asset_id"`
	AssignedTo   string         `db:"assigned_to"`
	AssignedBy   string         `db:"assigned_by"`
	AssignedDate string         `db:"assigned_date"`
	ReturnDate   sql.NullString `db:"return_date"`
	Status       string         `db:"status"`
	Notes        string         `db:"notes"`
	CreatedAt    string         `db:"created_at"`
}

func (r assignmentRow) toAssignment() (inventory.Assignment, error) {
	assigned, err := parseDate(r.AssignedDate)
	if err != nil {
		return inventory.Assignment{}, fmt.Errorf("assignment %s: %w", r.ID, err)
	}
	a := inventory.Assignment{
		ID:           inventory.AssignmentID(r.ID),
		AssetID:      inventory.AssetID(r.AssetID),
		AssignedTo:   inventory.UserID(r.AssignedTo),
		AssignedBy:   inventory.UserID(r.AssignedBy),
		AssignedDate: assigned,
		Status:       inventory.AssignmentStatus(r.Status),
		Notes:        r.Notes,
		CreatedAt:    parseTime(r.CreatedAt),
	}
	if r.ReturnDate.Valid {
		ret, err := parseDate(r.ReturnDate.String)
		if err != nil {
			return inventory.Assignment{}, fmt.Errorf("assignment %s: %w", r.ID, err)
		}
		a.ReturnDate = &ret
	}
	return a, nil
}

type expenditureRow struct {
	ID         string         `db:"id"`
	AssetID    string         `db:"asset_id"`
	BaseID     string         `db:"base_id"`
	Quantity   int64          `db:"quantity"`
	Reason     string         `db:"reason"`
	Date       string         `db:"date"`
	ApprovedBy sql.NullString `db:"approved_by"`
	CreatedAt  string         `db:"created_at"`
}

func (r expenditureRow) toExpenditure() inventory.Expenditure {
	date, _ := parseDate(r.Date)
	e := inventory.Expenditure{
		ID:        inventory.ExpenditureID(r.ID),
		AssetID:   inventory.AssetID(r.AssetID),
		BaseID:    inventory.BaseID(r.BaseID),
		Quantity:  r.Quantity,
		Reason:    r.Reason,
		Date:      date,
		CreatedAt: parseTime(r.CreatedAt),
	}
	if r.ApprovedBy.Valid {
		id := inventory.UserID(r.ApprovedBy.String)
		e.ApprovedBy = &id
	}
	return e
}

type auditRow struct {
	ID          string         `db:"id"`
	Action      string         `db:"action"`
	EntityType  string         `db:"entity_type"`
	EntityID    string         `db:"entity_id"`
	Details     string         `db:"details"`
	ActorID     string         `db:"actor_id"`
	ActorBaseID sql.NullString `db:"actor_base_id"`
	Timestamp   string         `db:"timestamp"`
}

func (r auditRow) toEntry() (inventory.AuditEntry, error) {
	ts, err := time.Parse(timeLayout, r.Timestamp)
	if err != nil {
		return inventory.AuditEntry{}, fmt.Errorf("audit entry %s: corrupt timestamp %q", r.ID, r.Timestamp)
	}
	e := inventory.AuditEntry{
		ID:         inventory.AuditID(r.ID),
		Action:     r.Action,
		EntityType: inventory.EntityType(r.EntityType),
		EntityID:   r.EntityID,
		Details:    r.Details,
		ActorID:    inventory.UserID(r.ActorID),
		Timestamp:  ts,
	}
	if r.ActorBaseID.Valid {
		id := inventory.BaseID(r.ActorBaseID.String)
		e.ActorBaseID = &id
	}
	return e, nil
}

func parseDate(s string) (inventory.Date, error) {
	d, err := inventory.ParseDate(s)
	if err != nil {
		return inventory.Date{}, fmt.Errorf("corrupt date %q: %w", s, err)
	}
	return d, nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
