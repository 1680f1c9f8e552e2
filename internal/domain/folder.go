package domain

import "fmt"

// MovieFolderName returns "Title (Year) [tmdbid-ID]", dropping the parts
// that are not known.
func MovieFolderName(title string, year, tmdbID *int) string {
	return folderName(title, year, "tmdbid", tmdbID)
}

// SeriesFolderName returns "Title (Year) [tvdbid-ID]", dropping the parts
// that are not known.
func SeriesFolderName(title string, year, tvdbID *int) string {
	return folderName(title, year, "tvdbid", tvdbID)
}

func folderName(title string, year *int, tag string, id *int) string {
	name := title
	if year != nil {
		name = fmt.Sprintf("%s (%d)", title, *year)
	}
	if id != nil {
		name = fmt.Sprintf("%s [%s-%d]", name, tag, *id)
	}
	return name
}
