package handlers

import (
	"net/http"

	"homehub/models"
	"homehub/services/storage"
)

// Stored refs are bare filenames for local uploads; responses always carry
// absolute URLs.

func resolveUser(u storage.URLResolver, r *http.Request, usr *models.User) {
	if usr == nil {
		return
	}
	usr.Avatar = u.Absolute(usr.Avatar, r)
	usr.Documents = u.AbsoluteAll(usr.Documents, r)
}

func resolveServices(u storage.URLResolver, r *http.Request, services []models.Service) {
	for i := range services {
		services[i].Photos = u.AbsoluteAll(services[i].Photos, r)
	}
}

func resolveService(u storage.URLResolver, r *http.Request, s *models.Service) {
	if s != nil {
		s.Photos = u.AbsoluteAll(s.Photos, r)
	}
}

func resolveOffers(u storage.URLResolver, r *http.Request, offers []models.SpecialOffer) {
	for i := range offers {
		offers[i].Image = u.Absolute(offers[i].Image, r)
	}
}

func resolveTeam(u storage.URLResolver, r *http.Request, members []models.TeamMember) {
	for i := range members {
		members[i].Image = u.Absolute(members[i].Image, r)
	}
}

func resolveTestimonials(u storage.URLResolver, r *http.Request, items []models.Testimonial) {
	for i := range items {
		items[i].Image = u.Absolute(items[i].Image, r)
	}
}

func resolveBanners(u storage.URLResolver, r *http.Request, banners []models.PromotionalBanner) {
	for i := range banners {
		banners[i].Image = u.Absolute(banners[i].Image, r)
	}
}
