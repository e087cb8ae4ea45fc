package linkedin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// typeaheadQueryID identifies the geo typeahead GraphQL query.
const typeaheadQueryID = "voyagerSearchDashReusableTypeahead.4c7caa85341b17b470153ad3d1a29caf"

// clustersDecorationID identifies the secondary-filter clusters decoration.
const clustersDecorationID = "com.linkedin.voyager.dash.deco.search.SearchFilterCluster-44"

// geoSearchTypes lists the hierarchy levels the typeahead may return.
const geoSearchTypes = "List(POSTCODE_1,POSTCODE_2,POPULATED_PLACE,ADMIN_DIVISION_1," +
	"ADMIN_DIVISION_2,COUNTRY_REGION,MARKET_AREA,COUNTRY_CLUSTER)"

// GeoMatch is a master-level typeahead result.
type GeoMatch struct {
	ID   int64
	Name string
}

// Place is a populated-place candidate nested under a master geo id.
type Place struct {
	ID   int64
	Name string
}

// TypeaheadGeo resolves a free-text location to master-level geo candidates,
// ordered by the platform's confidence.
func (c *Client) TypeaheadGeo(ctx context.Context, location string) ([]GeoMatch, error) {
	variables := fmt.Sprintf(
		"(keywords:%s,query:(typeaheadFilterQuery:(geoSearchTypes:%s),typeaheadUseCase:JOBS),type:GEO)",
		escapeQueryValue(location), geoSearchTypes,
	)
	fullURL := fmt.Sprintf("%s?includeWebMetadata=true&variables=%s&queryId=%s",
		graphqlURL, variables, typeaheadQueryID)

	var resp struct {
		Data struct {
			Data struct {
				SearchDashReusableTypeaheadByType struct {
					Elements []struct {
						Title  *textWrapper `json:"title"`
						Target map[string]any `json:"target"`
					} `json:"elements"`
				} `json:"searchDashReusableTypeaheadByType"`
			} `json:"data"`
		} `json:"data"`
	}
	if err := c.do(ctx, c.jobLimiter, http.MethodGet, fullURL, nil, &resp); err != nil {
		return nil, err
	}

	var matches []GeoMatch
	for _, el := range resp.Data.Data.SearchDashReusableTypeaheadByType.Elements {
		urn, ok := el.Target["*geo"].(string)
		if !ok {
			continue
		}
		id, err := urnID(urn)
		if err != nil {
			continue
		}
		match := GeoMatch{ID: id}
		if el.Title != nil {
			match.Name = el.Title.Text
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// PopulatedPlaces fetches the populated-place candidates nested under a
// master geo id via the secondary search-filter clusters.
func (c *Client) PopulatedPlaces(ctx context.Context, masterGeoID int64) ([]Place, error) {
	query := fmt.Sprintf(
		"(origin:JOB_SEARCH_PAGE_JOB_FILTER,locationUnion:(geoId:%d),selectedFilters:(sortBy:List(R)),spellCorrectionEnabled:true)",
		masterGeoID,
	)
	fullURL := fmt.Sprintf("%s?decorationId=%s&q=filters&query=%s",
		filterClustersURL, clustersDecorationID, query)

	var resp struct {
		Data struct {
			Elements []struct {
				SecondaryFilterGroups []struct {
					Filters []struct {
						ParameterName         string `json:"parameterName"`
						SecondaryFilterValues []struct {
							Value       string `json:"value"`
							DisplayName string `json:"displayName"`
						} `json:"secondaryFilterValues"`
					} `json:"filters"`
				} `json:"secondaryFilterGroups"`
			} `json:"elements"`
		} `json:"data"`
	}
	if err := c.do(ctx, c.jobLimiter, http.MethodGet, fullURL, nil, &resp); err != nil {
		return nil, err
	}

	var places []Place
	for _, el := range resp.Data.Elements {
		for _, group := range el.SecondaryFilterGroups {
			for _, f := range group.Filters {
				if f.ParameterName != "populatedPlace" {
					continue
				}
				for _, val := range f.SecondaryFilterValues {
					id, err := strconv.ParseInt(val.Value, 10, 64)
					if err != nil {
						continue
					}
					places = append(places, Place{ID: id, Name: val.DisplayName})
				}
			}
		}
	}
	return places, nil
}

// urnID extracts the trailing numeric id from an urn like
// "urn:li:fsd_geo:100025096".
func urnID(urn string) (int64, error) {
	idx := strings.LastIndexByte(urn, ':')
	if idx < 0 || idx == len(urn)-1 {
		return 0, fmt.Errorf("malformed urn %q", urn)
	}
	return strconv.ParseInt(urn[idx+1:], 10, 64)
}

// escapeQueryValue percent-encodes a value embedded in a Rest.li query
// structure. Spaces must encode as %20, not '+'.
func escapeQueryValue(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
