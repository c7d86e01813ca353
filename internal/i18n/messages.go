// Package i18n holds every user-facing string of the client, in English and
// Indonesian.
package i18n

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a message in the catalog.
type Key string

const (
	Validation         Key = "validation"
	Uploading          Key = "uploading"
	Processing         Key = "processing"
	Ready              Key = "ready"
	ProcessingFailed   Key = "processing_failed"
	SubmissionError    Key = "submission_error"
	PollError          Key = "poll_error"
	GalleryEmpty       Key = "gallery_empty"
	GalleryUnavailable Key = "gallery_unavailable"
	GalleryImageAlt    Key = "gallery_image_alt"
	Download           Key = "download"
	Generate           Key = "generate"
	Generating         Key = "generating"
	PageTitle          Key = "page_title"
	LightImage         Key = "light_image"
	DarkImage          Key = "dark_image"
	GalleryHeading     Key = "gallery_heading"
)

var supported = []language.Tag{language.English, language.Indonesian}

var matcher = language.NewMatcher(supported)

var entries = map[language.Tag]map[Key]string{
	language.English: {
		Validation:         "Please select both a light and a dark image.",
		Uploading:          "Uploading images...",
		Processing:         "Processing... this may take a moment.",
		Ready:              "Your wallpaper is ready!",
		ProcessingFailed:   "Sorry, something went wrong during processing.",
		SubmissionError:    "Error: %s. Please try again.",
		PollError:          "Error checking status. Please check the gallery later.",
		GalleryEmpty:       "No wallpapers have been created yet.",
		GalleryUnavailable: "Could not load the gallery. Please try again later.",
		GalleryImageAlt:    "Dynamic Wallpaper Preview",
		Download:           "Download",
		Generate:           "Generate",
		Generating:         "Generating...",
		PageTitle:          "Dynamic Wallpaper Creator",
		LightImage:         "Light image",
		DarkImage:          "Dark image",
		GalleryHeading:     "Gallery",
	},
	language.Indonesian: {
		Validation:         "Silakan pilih gambar terang dan gambar gelap.",
		Uploading:          "Mengunggah gambar...",
		Processing:         "Sedang diproses... mohon tunggu sebentar.",
		Ready:              "Wallpaper Anda sudah siap!",
		ProcessingFailed:   "Maaf, terjadi kesalahan saat pemrosesan.",
		SubmissionError:    "Galat: %s. Silakan coba lagi.",
		PollError:          "Gagal memeriksa status. Silakan cek galeri nanti.",
		GalleryEmpty:       "Belum ada wallpaper yang dibuat.",
		GalleryUnavailable: "Galeri tidak dapat dimuat. Silakan coba lagi nanti.",
		GalleryImageAlt:    "Pratinjau Wallpaper Dinamis",
		Download:           "Unduh",
		Generate:           "Buat",
		Generating:         "Membuat...",
		PageTitle:          "Pembuat Wallpaper Dinamis",
		LightImage:         "Gambar terang",
		DarkImage:          "Gambar gelap",
		GalleryHeading:     "Galeri",
	},
}

var builder = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range entries {
		for key, text := range msgs {
			if err := b.SetString(tag, string(key), text); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Match picks the best supported language for the given preferences. Each
// preference may be a bare locale ("id") or a full Accept-Language header.
func Match(prefs ...string) language.Tag {
	var tags []language.Tag
	for _, pref := range prefs {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return language.English
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return language.English
	}
	return supported[idx]
}

// Printer returns a message printer bound to the catalog.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(builder))
}

// Text renders the message for key in the given language.
func Text(tag language.Tag, key Key, args ...any) string {
	return Printer(tag).Sprintf(string(key), args...)
}

// Title capitalizes a label according to the language's casing rules.
func Title(tag language.Tag, s string) string {
	return cases.Title(tag).String(s)
}
