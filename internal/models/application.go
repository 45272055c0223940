package models

import "time"

// FormRecord is one section of the applicant's questionnaire. The workflow
// stores it verbatim and never reads its fields.
type FormRecord map[string]interface{}

// Clone returns a shallow copy.
func (f FormRecord) Clone() FormRecord {
	if f == nil {
		return nil
	}
	out := make(FormRecord, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// FormData groups the three questionnaire sections.
type FormData struct {
	PersonalInfo      FormRecord `json:"personalInfo,omitempty"`
	LivingEnvironment FormRecord `json:"livingEnvironment,omitempty"`
	PetExperience     FormRecord `json:"petExperience,omitempty"`
}

// IsEmpty reports whether no section was supplied.
func (f FormData) IsEmpty() bool {
	return len(f.PersonalInfo) == 0 && len(f.LivingEnvironment) == 0 && len(f.PetExperience) == 0
}

// Application is one applicant's request to adopt one pet.
type Application struct {
	ID            int64  `json:"id"`
	ApplicationID string `json:"applicationId"`
	PetID         int64  `json:"petId"`
	ApplicantID   int64  `json:"applicantId"`
	ShelterID     int64  `json:"shelterId"`
	Status        Status `json:"status"`

	PersonalInfo      FormRecord `json:"personalInfo,omitempty"`
	LivingEnvironment FormRecord `json:"livingEnvironment,omitempty"`
	PetExperience     FormRecord `json:"petExperience,omitempty"`

	HomeVisitDate     *time.Time `json:"homeVisitDate,omitempty"`
	HomeVisitNotes    string     `json:"homeVisitNotes,omitempty"`
	HomeVisitDocument string     `json:"homeVisitDocument,omitempty"`

	FinalDecisionNotes string     `json:"finalDecisionNotes,omitempty"`
	ReviewedBy         *int64     `json:"reviewedBy,omitempty"`
	ReviewedAt         *time.Time `json:"reviewedAt,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

// Form returns the questionnaire sections.
func (a *Application) Form() FormData {
	return FormData{
		PersonalInfo:      a.PersonalInfo,
		LivingEnvironment: a.LivingEnvironment,
		PetExperience:     a.PetExperience,
	}
}

// ApplyForm overwrites each section that is present in f.
func (a *Application) ApplyForm(f FormData) {
	if len(f.PersonalInfo) > 0 {
		a.PersonalInfo = f.PersonalInfo.Clone()
	}
	if len(f.LivingEnvironment) > 0 {
		a.LivingEnvironment = f.LivingEnvironment.Clone()
	}
	if len(f.PetExperience) > 0 {
		a.PetExperience = f.PetExperience.Clone()
	}
}

// Clone returns a copy that shares no mutable state with a.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	out := *a
	out.PersonalInfo = a.PersonalInfo.Clone()
	out.LivingEnvironment = a.LivingEnvironment.Clone()
	out.PetExperience = a.PetExperience.Clone()
	out.HomeVisitDate = cloneTime(a.HomeVisitDate)
	out.ReviewedAt = cloneTime(a.ReviewedAt)
	out.SubmittedAt = cloneTime(a.SubmittedAt)
	if a.ReviewedBy != nil {
		v := *a.ReviewedBy
		out.ReviewedBy = &v
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
