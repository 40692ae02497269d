package service

import "applicant-review-api/internal/model"

// FieldSpec pairs a trusted captured-field key with its display label.
// The whitelists below are the anti-injection boundary: captured values
// are untrusted external input, and only whitelisted keys ever reach a
// published profile. Unknown keys are dropped silently.
type FieldSpec struct {
	Key   string
	Label string
}

// NameFieldKey is the captured field used for profile titles when present.
const NameFieldKey = "name"

// ImageFieldKey optionally carries a portrait URL attached best-effort.
const ImageFieldKey = "photo_url"

var providerFields = []FieldSpec{
	{Key: "name", Label: "Name"},
	{Key: "email", Label: "Email"},
	{Key: "gender", Label: "Gender"},
	{Key: "phone", Label: "Phone"},
	{Key: "line_id", Label: "LINE ID"},
	{Key: "photo_url", Label: "Photo"},
	{Key: "education", Label: "Education"},
	{Key: "licenses", Label: "Licenses"},
	{Key: "other_licenses", Label: "Other licenses"},
	{Key: "expertise", Label: "Areas of expertise"},
	{Key: "expertise_notes", Label: "Expertise notes"},
	{Key: "audiences", Label: "Audience groups"},
	{Key: "audience_notes", Label: "Audience notes"},
	{Key: "training", Label: "Training background"},
	{Key: "training_notes", Label: "Training notes"},
	{Key: "service_areas", Label: "Service areas"},
	{Key: "other_areas", Label: "Other areas"},
	{Key: "cooperation", Label: "Cooperation modes"},
	{Key: "recent_service", Label: "Recent service record"},
	{Key: "video_url", Label: "Introduction video"},
	{Key: "course_url", Label: "Course materials"},
	{Key: "languages", Label: "Languages"},
	{Key: "other_languages", Label: "Other languages"},
}

var requesterFields = []FieldSpec{
	{Key: "name", Label: "Organization"},
	{Key: "email", Label: "Email"},
	{Key: "contact_person", Label: "Contact person"},
	{Key: "position", Label: "Position"},
	{Key: "phone", Label: "Phone"},
	{Key: "line_id", Label: "LINE ID"},
	{Key: "service_areas", Label: "Service areas"},
	{Key: "address", Label: "Address"},
	{Key: "class_time", Label: "Preferred class time"},
	{Key: "time_slot", Label: "Time slot"},
	{Key: "time_notes", Label: "Time notes"},
	{Key: "audience_type", Label: "Audience type"},
	{Key: "audience_notes", Label: "Audience notes"},
	{Key: "participant_count", Label: "Expected participants"},
	{Key: "audience_description", Label: "Audience description"},
	{Key: "expected_goal", Label: "Expected goal"},
	{Key: "course_type", Label: "Course type"},
	{Key: "resources", Label: "Available resources"},
	{Key: "fee_range", Label: "Instructor fee range"},
	{Key: "material_fee", Label: "Material fee"},
	{Key: "payment_method", Label: "Payment method"},
	{Key: "prior_cooperation", Label: "Prior cooperation"},
	{Key: "multi_instructor", Label: "Multiple instructors"},
	{Key: "accept_recommendation", Label: "Accepts recommendations"},
	{Key: "languages", Label: "Languages"},
	{Key: "other_languages", Label: "Other languages"},
}

// FieldsForCategory returns the ordered trusted field list for a category.
func FieldsForCategory(category model.Category) []FieldSpec {
	switch category {
	case model.CategoryProvider:
		return providerFields
	case model.CategoryRequester:
		return requesterFields
	}
	return nil
}

// LabelForField resolves the display label of a whitelisted key, and
// whether the key is trusted for the given category.
func LabelForField(category model.Category, key string) (string, bool) {
	for _, f := range FieldsForCategory(category) {
		if f.Key == key {
			return f.Label, true
		}
	}
	return "", false
}
