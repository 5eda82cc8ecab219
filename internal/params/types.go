package params

import "time"

// Common holds the paging and freshness parameters every type accepts
type Common struct {
	Limit         int       `schema:"limit" validate:"omitempty,min=1,max=100"`
	Offset        int       `schema:"offset" validate:"min=0"`
	ModifiedSince time.Time `schema:"modifiedSince"`
}

// ComicParams filters comics
type ComicParams struct {
	Common
	Format            string   `schema:"format" validate:"comicformat"`
	FormatType        string   `schema:"formatType" validate:"omitempty,oneof=comic collection"`
	NoVariants        bool     `schema:"noVariants"`
	DateDescriptor    string   `schema:"dateDescriptor" validate:"omitempty,oneof=lastWeek thisWeek nextWeek thisMonth"`
	DateRange         string   `schema:"dateRange"`
	Title             string   `schema:"title"`
	TitleStartsWith   string   `schema:"titleStartsWith"`
	StartYear         int      `schema:"startYear" validate:"omitempty,min=1900"`
	IssueNumber       int      `schema:"issueNumber" validate:"min=0"`
	DiamondCode       string   `schema:"diamondCode"`
	DigitalID         int      `schema:"digitalId" validate:"min=0"`
	UPC               string   `schema:"upc"`
	ISBN              string   `schema:"isbn"`
	EAN               string   `schema:"ean"`
	ISSN              string   `schema:"issn"`
	HasDigitalIssue   bool     `schema:"hasDigitalIssue"`
	Creators          []int    `schema:"creators" validate:"omitempty,max=10,dive,min=0"`
	Characters        []int    `schema:"characters" validate:"omitempty,max=10,dive,min=0"`
	Series            []int    `schema:"series" validate:"omitempty,max=10,dive,min=0"`
	Events            []int    `schema:"events" validate:"omitempty,max=10,dive,min=0"`
	Stories           []int    `schema:"stories" validate:"omitempty,max=10,dive,min=0"`
	SharedAppearances []int    `schema:"sharedAppearances" validate:"omitempty,max=10,dive,min=0"`
	Collaborators     []int    `schema:"collaborators" validate:"omitempty,max=10,dive,min=0"`
	OrderBy           []string `schema:"orderBy" validate:"omitempty,dive,oneof=focDate onsaleDate title issueNumber modified -focDate -onsaleDate -title -issueNumber -modified"`
}

// CharacterParams filters characters
type CharacterParams struct {
	Common
	Name           string   `schema:"name"`
	NameStartsWith string   `schema:"nameStartsWith"`
	Comics         []int    `schema:"comics" validate:"omitempty,max=10,dive,min=0"`
	Series         []int    `schema:"series" validate:"omitempty,max=10,dive,min=0"`
	Events         []int    `schema:"events" validate:"omitempty,max=10,dive,min=0"`
	Stories        []int    `schema:"stories" validate:"omitempty,max=10,dive,min=0"`
	OrderBy        []string `schema:"orderBy" validate:"omitempty,dive,oneof=name modified -name -modified"`
}

// CreatorParams filters creators
type CreatorParams struct {
	Common
	FirstName            string   `schema:"firstName"`
	MiddleName           string   `schema:"middleName"`
	LastName             string   `schema:"lastName"`
	Suffix               string   `schema:"suffix"`
	NameStartsWith       string   `schema:"nameStartsWith"`
	FirstNameStartsWith  string   `schema:"firstNameStartsWith"`
	MiddleNameStartsWith string   `schema:"middleNameStartsWith"`
	LastNameStartsWith   string   `schema:"lastNameStartsWith"`
	Comics               []int    `schema:"comics" validate:"omitempty,max=10,dive,min=0"`
	Series               []int    `schema:"series" validate:"omitempty,max=10,dive,min=0"`
	Events               []int    `schema:"events" validate:"omitempty,max=10,dive,min=0"`
	Stories              []int    `schema:"stories" validate:"omitempty,max=10,dive,min=0"`
	OrderBy              []string `schema:"orderBy" validate:"omitempty,dive,oneof=lastName firstName middleName suffix modified -lastName -firstName -middleName -suffix -modified"`
}

// EventParams filters events
type EventParams struct {
	Common
	Name           string   `schema:"name"`
	NameStartsWith string   `schema:"nameStartsWith"`
	Creators       []int    `schema:"creators" validate:"omitempty,max=10,dive,min=0"`
	Characters     []int    `schema:"characters" validate:"omitempty,max=10,dive,min=0"`
	Series         []int    `schema:"series" validate:"omitempty,max=10,dive,min=0"`
	Comics         []int    `schema:"comics" validate:"omitempty,max=10,dive,min=0"`
	Stories        []int    `schema:"stories" validate:"omitempty,max=10,dive,min=0"`
	OrderBy        []string `schema:"orderBy" validate:"omitempty,dive,oneof=name startDate modified -name -startDate -modified"`
}

// SeriesParams filters series
type SeriesParams struct {
	Common
	Title           string   `schema:"title"`
	TitleStartsWith string   `schema:"titleStartsWith"`
	StartYear       int      `schema:"startYear" validate:"omitempty,min=1900"`
	Comics          []int    `schema:"comics" validate:"omitempty,max=10,dive,min=0"`
	Stories         []int    `schema:"stories" validate:"omitempty,max=10,dive,min=0"`
	Events          []int    `schema:"events" validate:"omitempty,max=10,dive,min=0"`
	Creators        []int    `schema:"creators" validate:"omitempty,max=10,dive,min=0"`
	Characters      []int    `schema:"characters" validate:"omitempty,max=10,dive,min=0"`
	SeriesType      string   `schema:"seriesType" validate:"omitempty,oneof=collection one_shot limited ongoing"`
	Contains        []string `schema:"contains" validate:"omitempty,dive,comicformat"`
	OrderBy         []string `schema:"orderBy" validate:"omitempty,dive,oneof=title modified startYear -title -modified -startYear"`
}

// StoryParams filters stories
type StoryParams struct {
	Common
	Comics     []int    `schema:"comics" validate:"omitempty,max=10,dive,min=0"`
	Series     []int    `schema:"series" validate:"omitempty,max=10,dive,min=0"`
	Events     []int    `schema:"events" validate:"omitempty,max=10,dive,min=0"`
	Creators   []int    `schema:"creators" validate:"omitempty,max=10,dive,min=0"`
	Characters []int    `schema:"characters" validate:"omitempty,max=10,dive,min=0"`
	OrderBy    []string `schema:"orderBy" validate:"omitempty,dive,oneof=id modified -id -modified"`
}
