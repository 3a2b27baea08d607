package location

import "github.com/borgmon/adzan-reminder/pkg/models"

var defaultLocations = []models.Location{
	{ID: "1301", Name: "KOTA JAKARTA", GMT: "+7"},
	{ID: "1219", Name: "KOTA BANDUNG", GMT: "+7"},
	{ID: "1433", Name: "KOTA SEMARANG", GMT: "+7"},
	{ID: "1505", Name: "KOTA YOGYAKARTA", GMT: "+7"},
	{ID: "1638", Name: "KOTA SURABAYA", GMT: "+7"},
	{ID: "0228", Name: "KOTA MEDAN", GMT: "+7"},
	{ID: "0816", Name: "KOTA PALEMBANG", GMT: "+7"},
	{ID: "1108", Name: "KOTA BOGOR", GMT: "+7"},
	{ID: "1701", Name: "KOTA DENPASAR", GMT: "+8"},
	{ID: "2622", Name: "KOTA MAKASSAR", GMT: "+8"},
	{ID: "2327", Name: "KOTA BALIKPAPAN", GMT: "+8"},
	{ID: "3211", Name: "KOTA JAYAPURA", GMT: "+9"},
}
