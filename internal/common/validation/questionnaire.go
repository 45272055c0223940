package validation

import (
	"adoption-review/internal/models"
)

type obj = map[string]interface{}

func str(minLen, maxLen int) obj {
	return obj{"type": "string", "minLength": minLen, "maxLength": maxLen}
}

func nonNegative() obj {
	return obj{"type": "integer", "minimum": 0}
}

var (
	personalInfoDef = obj{
		"type": "object",
		"properties": obj{
			"name":           str(1, 100),
			"phone":          str(10, 20),
			"email":          obj{"type": "string", "minLength": 5, "maxLength": 100, "format": "email"},
			"address":        str(1, 200),
			"id_number":      str(1, 20),
			"occupation":     str(1, 100),
			"monthly_income": nonNegative(),
		},
		"required": []string{"name", "phone", "email", "address", "id_number", "occupation", "monthly_income"},
	}

	livingEnvironmentDef = obj{
		"type": "object",
		"properties": obj{
			"housing_type":       obj{"type": "string", "maxLength": 50},
			"space_size":         nonNegative(),
			"has_yard":           obj{"type": "boolean"},
			"family_members":     obj{"type": "integer", "minimum": 1},
			"has_allergies":      obj{"type": "boolean"},
			"other_pets":         obj{"type": []string{"array", "null"}, "items": obj{"type": "object"}},
			"environment_photos": obj{"type": []string{"array", "null"}, "items": obj{"type": "object"}},
		},
		"required": []string{"housing_type", "space_size", "has_yard", "family_members", "has_allergies"},
	}

	petExperienceDef = obj{
		"type": "object",
		"properties": obj{
			"previous_experience": str(1, 1000),
			"pet_knowledge":       str(1, 1000),
			"care_schedule":       str(1, 1000),
			"veterinarian_info":   str(1, 500),
			"emergency_fund":      nonNegative(),
		},
		"required": []string{"previous_experience", "pet_knowledge", "care_schedule", "veterinarian_info", "emergency_fund"},
	}

	// SubmissionSchema is the complete questionnaire required to submit.
	SubmissionSchema = MustCompile("questionnaire", obj{
		"type": "object",
		"properties": obj{
			"personalInfo":      personalInfoDef,
			"livingEnvironment": livingEnvironmentDef,
			"petExperience":     petExperienceDef,
		},
		"required": []string{"personalInfo", "livingEnvironment", "petExperience"},
	})

	// DraftSchema accepts any subset of sections; each section only has to be
	// an object.
	DraftSchema = MustCompile("draft", obj{
		"type": "object",
		"properties": obj{
			"personalInfo":      obj{"type": []string{"object", "null"}},
			"livingEnvironment": obj{"type": []string{"object", "null"}},
			"petExperience":     obj{"type": []string{"object", "null"}},
		},
	})
)

// ValidateSubmission checks that form is complete enough to submit.
func ValidateSubmission(form models.FormData) error {
	return ValidateInput(form, SubmissionSchema)
}

// ValidateDraft checks the shape of a partial form.
func ValidateDraft(form models.FormData) error {
	return ValidateInput(form, DraftSchema)
}
