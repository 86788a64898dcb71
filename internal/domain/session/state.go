package session

import (
	"workspots/internal/domain/auth"
	"workspots/internal/domain/profile"
)

type Page string

const (
	PageDiscovery  Page = "discovery"
	PageLogin      Page = "login"
	PageSubmission Page = "submission"
	PageDashboard  Page = "dashboard"
	PageAdmin      Page = "admin"
)

var Pages = []Page{PageDiscovery, PageLogin, PageSubmission, PageDashboard, PageAdmin}

const (
	RedirectUnauthorized = "/login?reason=unauthorized"
	RedirectBanned       = "/login?reason=banned"
)

type Outcome string

const (
	OutcomeAllow    Outcome = "allow"
	OutcomePending  Outcome = "pending"
	OutcomeRedirect Outcome = "redirect"
	OutcomeDenied   Outcome = "denied"
)

type Decision struct {
	Outcome  Outcome `json:"outcome"`
	Redirect string  `json:"redirect,omitempty"`
}

// State is the combined view of who is signed in and their profile.
// Profile is nil when none exists or it could not be read.
type State struct {
	Identity  *auth.Identity   `json:"identity"`
	Profile   *profile.Profile `json:"profile"`
	Resolving bool             `json:"resolving"`
}

func (s State) SignedIn() bool { return s.Identity != nil }

func (s State) IsAdmin() bool { return s.Profile != nil && s.Profile.IsAdmin }

// Allow decides what a view may do for this state. Nothing gated is
// rendered while the state is still resolving.
func (s State) Allow(page Page) Decision {
	switch page {
	case PageDiscovery, PageLogin:
		return Decision{Outcome: OutcomeAllow}
	}
	if s.Resolving {
		return Decision{Outcome: OutcomePending}
	}
	if s.Identity == nil || s.Profile == nil {
		return Decision{Outcome: OutcomeRedirect, Redirect: RedirectUnauthorized}
	}
	if s.Profile.IsBanned {
		return Decision{Outcome: OutcomeRedirect, Redirect: RedirectBanned}
	}

	switch page {
	case PageSubmission, PageDashboard:
		return Decision{Outcome: OutcomeAllow}
	case PageAdmin:
		if !s.Profile.IsAdmin {
			return Decision{Outcome: OutcomeDenied}
		}
		return Decision{Outcome: OutcomeAllow}
	}
	return Decision{Outcome: OutcomeDenied}
}

// Decisions evaluates every page, for clients that render navigation.
func (s State) Decisions() map[Page]Decision {
	out := make(map[Page]Decision, len(Pages))
	for _, p := range Pages {
		out[p] = s.Allow(p)
	}
	return out
}
