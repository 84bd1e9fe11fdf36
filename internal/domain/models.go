// Package domain defines the persistence models for service requests (SAT),
// technical investigations (AVT), users, and attachments. These types are
// mapped with GORM and form the core data layer of the application.
package domain

import (
	"fmt"
	"time"
)

// CodePlaceholder is stored in Request.Code between the first insert and
// the re-save that assigns the final sequential code. The column is NOT
// NULL and unique, so a real value is required even before the sequence
// number is known.
const CodePlaceholder = "TEMP"

// FormatRequestCode renders the definitive human-readable code for an
// assigned sequence number, e.g. FormatRequestCode(42) == "SAT-000042".
func FormatRequestCode(seq int64) string {
	return fmt.Sprintf("SAT-%06d", seq)
}

// Request represents a customer's technical-assistance case (SAT).
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Seq: monotonically allocated sequence number; source of the final Code.
//   - Code: unique human-readable code ("SAT-NNNNNN"); immutable once
//     assigned. Holds CodePlaceholder between the two saves of creation.
//   - RequesterID: the REPRESENTATIVE user who filed the request.
//   - Status: lifecycle state, defaults to PENDING.
//   - Destination: lab the request is routed to; nil until first routing.
//   - Lots: owned (lot, expiry) pairs; cascade-deleted with the request.
type Request struct {
	ID          string        `json:"id"           gorm:"type:char(36);primaryKey"`
	Seq         int64         `json:"seq"          gorm:"not null;uniqueIndex"`
	Code        string        `json:"code"         gorm:"type:varchar(12);not null;uniqueIndex"`
	Client      string        `json:"client"       gorm:"type:varchar(255);not null"`
	City        string        `json:"city"         gorm:"type:varchar(255);not null"`
	Product     string        `json:"product"      gorm:"type:varchar(255);not null"`
	Quantity    int           `json:"quantity"     gorm:"not null"`
	Contact     string        `json:"contact"      gorm:"type:varchar(255);not null"`
	Phone       string        `json:"phone"        gorm:"type:varchar(32);not null"`
	Complaint   string        `json:"complaint"    gorm:"type:text;not null"`
	RequesterID int64         `json:"requester_id" gorm:"not null;index"`
	Status      RequestStatus `json:"status"       gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Destination *Lab          `json:"destination"  gorm:"type:varchar(16)"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// Requester is the representative who filed the request.
	Requester *User `json:"requester,omitempty" gorm:"foreignKey:RequesterID;references:ID"`

	// Lots are owned by the request and removed with it.
	Lots []RequestLot `json:"lots" gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// Attachments are the evidentiary files uploaded for the request.
	Attachments []Attachment `json:"attachments,omitempty" gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// Investigation is the AVT resolving this request, at most one.
	Investigation *Investigation `json:"investigation,omitempty" gorm:"foreignKey:RequestID;references:ID"`
}

// TableName returns the database table name for Request.
func (Request) TableName() string { return "sat" }

// RequestLot is one (lot number, expiry) pair belonging to a request.
// Expiry is kept as a yyyy-mm-dd string, matching the upstream intake form.
type RequestLot struct {
	ID        string `json:"id"     gorm:"type:char(36);primaryKey"`
	RequestID string `json:"-"      gorm:"type:char(36);not null;index"`
	Lot       string `json:"lot"    gorm:"type:varchar(20);not null"`
	Expiry    string `json:"expiry" gorm:"type:varchar(10);not null"`
}

// TableName returns the database table name for RequestLot.
func (RequestLot) TableName() string { return "sat_lot" }

// Investigation represents the technical findings record (AVT) resolving a
// request. Exactly one investigation may exist per request; repeated
// submissions update the existing row (see repo.UpsertInvestigation).
//
// The three outcome flags are independent tri-state booleans (nil means
// "not yet assessed"). Any of them being true selects the "upheld"
// notification scenario on completion; all false or unset selects the
// "dismissed" scenario.
type Investigation struct {
	ID              string              `json:"id"               gorm:"type:char(36);primaryKey"`
	RequestID       string              `json:"request_id"       gorm:"type:char(36);not null;uniqueIndex"`
	Findings        string              `json:"findings"         gorm:"type:text"`
	ProbableCause   string              `json:"probable_cause"   gorm:"type:text"`
	ReportID        *string             `json:"report_id"        gorm:"type:char(36)"`
	Lot             string              `json:"lot"              gorm:"type:varchar(20)"`
	ComplaintUpheld *bool               `json:"complaint_upheld"`
	Replacement     *bool               `json:"replacement"`
	LotRecall       *bool               `json:"lot_recall"`
	Solution        string              `json:"solution"         gorm:"type:text"`
	Date            time.Time           `json:"date"`
	TechnicianID    int64               `json:"technician_id"    gorm:"not null"`
	Status          InvestigationStatus `json:"status"           gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`

	// Report is the optional evidentiary document produced by the lab.
	Report *Attachment `json:"report,omitempty" gorm:"foreignKey:ReportID;references:ID"`

	// Technician is the responsible user.
	Technician *User `json:"technician,omitempty" gorm:"foreignKey:TechnicianID;references:ID"`
}

// TableName returns the database table name for Investigation.
func (Investigation) TableName() string { return "avt" }

// OutcomeUpheld reports whether any of the three outcome flags is true.
// It is the scenario selector for the finalization notification.
func (i Investigation) OutcomeUpheld() bool {
	isTrue := func(b *bool) bool { return b != nil && *b }
	return isTrue(i.ComplaintUpheld) || isTrue(i.Replacement) || isTrue(i.LotRecall)
}

// User is an account in the system. Requests are always filed by a
// REPRESENTATIVE user; lab technicians and orchestrators act on them.
type User struct {
	ID              int64     `json:"id"               gorm:"primaryKey;autoIncrement"`
	Code            string    `json:"code"             gorm:"type:varchar(8);not null;uniqueIndex"`
	Email           *string   `json:"email,omitempty"  gorm:"type:varchar(255);uniqueIndex"`
	PasswordHash    string    `json:"-"                gorm:"type:varchar(72);not null"`
	Role            UserRole  `json:"role"             gorm:"type:varchar(20);not null"`
	Name            string    `json:"name"             gorm:"type:varchar(255)"`
	PasswordChanged bool      `json:"password_changed" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Attachment is a stored evidentiary file. Blob storage itself is handled
// elsewhere; the workflow core only references attachments by id.
type Attachment struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	RequestID *string   `json:"request_id" gorm:"type:char(36);index"`
	FileName  string    `json:"file_name"  gorm:"type:varchar(255);not null"`
	MimeType  string    `json:"mime_type"  gorm:"type:varchar(100);not null"`
	Context   string    `json:"context"    gorm:"type:varchar(32)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Attachment.
func (Attachment) TableName() string { return "attachments" }
