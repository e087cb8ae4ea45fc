package linkedin

// Wire types for the Voyager normalized JSON format. Responses carry an
// ordered "elements" list of urn references plus a flat "included" list of
// entities; entity fields are disjoint enough to share one struct.

// textWrapper is the {"text": "..."} shape used across card fields.
type textWrapper struct {
	Text string `json:"text"`
}

// footerItem is one entry of a job card's footer.
type footerItem struct {
	Type   string       `json:"type"`
	Text   *textWrapper `json:"text"`
	TimeAt *int64       `json:"timeAt"`
}

// includedEntity is a normalized entity from the "included" list.
type includedEntity struct {
	EntityUrn string `json:"entityUrn"`

	// JobPostingCard fields.
	Title                *textWrapper `json:"title"`
	PrimaryDescription   *textWrapper `json:"primaryDescription"`
	SecondaryDescription *textWrapper `json:"secondaryDescription"`
	JobPostingUrn        string       `json:"jobPostingUrn"`
	JobPostingRef        string       `json:"*jobPosting"`
	FooterItems          []footerItem `json:"footerItems"`
	RelevanceInsight     *struct {
		Text *textWrapper `json:"text"`
	} `json:"relevanceInsight"`
	Logo *struct {
		ActionTarget string `json:"actionTarget"`
	} `json:"logo"`
	PrimaryActionsUnions []struct {
		DismissJobAction *struct {
			FeedbackUrn string `json:"jobPostingRelevanceFeedbackUrn"`
		} `json:"dismissJobAction"`
	} `json:"primaryActionsUnions"`

	// JobPosting fields.
	RepostedJob bool `json:"repostedJob"`

	// JobSeekerJobState fields.
	JobSeekerJobStateActions []struct {
		State string `json:"jobSeekerJobStateEnums"`
	} `json:"jobSeekerJobStateActions"`
}

// entityMap indexes included entities by urn.
type entityMap map[string]*includedEntity

func buildEntityMap(included []includedEntity) entityMap {
	m := make(entityMap, len(included))
	for i := range included {
		if included[i].EntityUrn != "" {
			m[included[i].EntityUrn] = &included[i]
		}
	}
	return m
}
