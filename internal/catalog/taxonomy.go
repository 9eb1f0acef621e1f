package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// taxonomyToSpecialty maps NUCC provider taxonomy codes to internal
// specialty codes. Source: CMS NUCC Health Care Provider Taxonomy Code Set.
// This is the subset the ingestion tooling recognizes; unknown taxonomy
// codes are dropped at load time.
var taxonomyToSpecialty = map[string]string{
	// Primary care
	"207Q00000X": "primary_care", // Family Medicine
	"207QA0505X": "primary_care", // Family Medicine, Adult Medicine
	"207QG0300X": "primary_care", // Family Medicine, Geriatric Medicine
	"207R00000X": "primary_care", // Internal Medicine
	"207RG0300X": "primary_care", // Internal Medicine, Geriatric Medicine
	"208D00000X": "primary_care", // General Practice
	"208M00000X": "primary_care", // Hospitalist
	"363L00000X": "primary_care", // Physician Assistant
	"363LP0200X": "primary_care", // PA, Primary Care
	"363LF0000X": "primary_care", // PA, Family Medicine
	"261QP2300X": "primary_care", // Primary Care Clinic

	// Cardiology
	"207RC0000X": "cardiology", // Cardiovascular Disease
	"207RI0011X": "cardiology", // Interventional Cardiology
	"207RC0001X": "cardiology", // Clinical Cardiac Electrophysiology
	"207RA0001X": "cardiology", // Advanced Heart Failure & Transplant

	// Neurology
	"2084N0400X": "neurology", // Neurology
	"207T00000X": "neurology", // Neurological Surgery
	"2084N0402X": "neurology", // Child Neurology
	"2084V0102X": "neurology", // Vascular Neurology

	// Nephrology
	"207RN0300X": "nephrology", // Nephrology

	// Oncology
	"207RX0202X": "oncology", // Medical Oncology
	"2085R0001X": "oncology", // Radiation Oncology
	"207RH0003X": "oncology", // Hematology & Oncology

	// Psychiatry
	"2084P0800X": "psychiatry", // Psychiatry
	"2084P0804X": "psychiatry", // Child & Adolescent Psychiatry
	"2084P0805X": "psychiatry", // Geriatric Psychiatry

	// OB/GYN
	"207V00000X": "obgyn", // Obstetrics & Gynecology
	"207VM0101X": "obgyn", // Maternal & Fetal Medicine
	"207VG0400X": "obgyn", // Gynecology

	// Orthopedics
	"207X00000X": "orthopedics", // Orthopaedic Surgery
	"207XS0114X": "orthopedics", // Adult Reconstructive Orthopaedic Surgery
	"207XX0004X": "orthopedics", // Orthopaedic Foot and Ankle Surgery

	// General surgery
	"208600000X": "general_surgery", // Surgery
	"2086S0122X": "general_surgery", // Plastic & Reconstructive Surgery
	"2086S0105X": "general_surgery", // Surgical Critical Care

	// Emergency medicine
	"207P00000X": "emergency", // Emergency Medicine
	"207PE0004X": "emergency", // Emergency Medical Services

	// Radiology
	"2085R0202X": "radiology", // Diagnostic Radiology
	"2085R0203X": "radiology", // Therapeutic Radiology

	// Pathology
	"207ZP0102X": "pathology", // Anatomic & Clinical Pathology

	// Dermatology
	"207N00000X": "dermatology", // Dermatology
	"207ND0900X": "dermatology", // Dermatopathology

	// Ophthalmology
	"207W00000X": "ophthalmology", // Ophthalmology
	"152W00000X": "ophthalmology", // Optometrist

	// Pediatrics
	"208000000X": "pediatrics", // Pediatrics
	"2080P0202X": "pediatrics", // Pediatric Cardiology
	"2080N0001X": "pediatrics", // Neonatal-Perinatal Medicine
}

// displayNameOverrides covers the specialty codes whose display name is not
// a simple title-casing of the code.
var displayNameOverrides = map[string]string{
	"obgyn":     "OB/GYN",
	"emergency": "Emergency Medicine",
}

var titleCaser = cases.Title(language.AmericanEnglish)

// SpecialtyForTaxonomy resolves a NUCC taxonomy code to an internal
// specialty code. The second return is false for unrecognized codes.
func SpecialtyForTaxonomy(taxonomy string) (string, bool) {
	code, ok := taxonomyToSpecialty[strings.ToUpper(strings.TrimSpace(taxonomy))]
	return code, ok
}

// SpecialtyCodes returns every specialty code the taxonomy maps to, sorted.
func SpecialtyCodes() []string {
	seen := map[string]struct{}{}
	for _, code := range taxonomyToSpecialty {
		seen[code] = struct{}{}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// DisplayName renders a specialty code as a human-readable name, e.g.
// "primary_care" -> "Primary Care".
func DisplayName(code string) string {
	if name, ok := displayNameOverrides[code]; ok {
		return name
	}
	return titleCaser.String(strings.ReplaceAll(code, "_", " "))
}
