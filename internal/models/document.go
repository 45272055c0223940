package models

import (
	"fmt"
	"time"
)

// DocumentType classifies an uploaded supporting document.
type DocumentType string

const (
	DocumentIdentity        DocumentType = "identity"
	DocumentIncome          DocumentType = "income"
	DocumentResidence       DocumentType = "residence"
	DocumentExperience      DocumentType = "experience"
	DocumentVeterinary      DocumentType = "veterinary"
	DocumentFamilyConsent   DocumentType = "family_consent"
	DocumentLandlordConsent DocumentType = "landlord_consent"
	DocumentOther           DocumentType = "other"
)

var documentTypes = []DocumentType{
	DocumentIdentity,
	DocumentIncome,
	DocumentResidence,
	DocumentExperience,
	DocumentVeterinary,
	DocumentFamilyConsent,
	DocumentLandlordConsent,
	DocumentOther,
}

// RequiredDocumentTypes are the types an application needs before review.
func RequiredDocumentTypes() []DocumentType {
	return []DocumentType{DocumentIdentity, DocumentIncome, DocumentResidence}
}

// ParseDocumentType rejects unknown document types.
func ParseDocumentType(raw string) (DocumentType, error) {
	for _, t := range documentTypes {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown document type %q", raw)
}

// ScanStatus is the result of the malware scan of an upload.
type ScanStatus string

const (
	ScanPending  ScanStatus = "pending"
	ScanClean    ScanStatus = "clean"
	ScanInfected ScanStatus = "infected"
)

// ApplicationDocument is one uploaded version of a supporting document.
type ApplicationDocument struct {
	ID                 int64        `json:"id"`
	ApplicationID      int64        `json:"applicationId"`
	DocumentType       DocumentType `json:"documentType"`
	FileName           string       `json:"fileName"`
	StorageKey         string       `json:"storageKey"`
	MimeType           string       `json:"mimeType,omitempty"`
	FileSize           int64        `json:"fileSize"`
	Description        string       `json:"description,omitempty"`
	SecurityScanStatus ScanStatus   `json:"securityScanStatus"`
	IsSafe             bool         `json:"isSafe"`
	Version            int          `json:"version"`
	IsCurrentVersion   bool         `json:"isCurrentVersion"`
	ReplacedByID       *int64       `json:"replacedById,omitempty"`
	UploadedAt         time.Time    `json:"uploadedAt"`
}

// Completion summarises which required documents are present.
type Completion struct {
	Required   []DocumentType `json:"required"`
	Uploaded   []DocumentType `json:"uploaded"`
	Missing    []DocumentType `json:"missing"`
	Percentage int            `json:"percentage"`
}

// IsComplete reports whether every required type has a current document.
func (c Completion) IsComplete() bool {
	return len(c.Missing) == 0
}
