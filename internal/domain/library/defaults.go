package library

// DefaultCatalog returns the built-in catalog for the platform.
// The Windows catalog carries the extra "filters" library.
func DefaultCatalog(p Platform) Catalog {
	if p == PlatformWindows {
		return Catalog{
			{Name: "boost", ID: "1YBgZBEHw9kpGD4oU1Kf4mYxplnpMsGBP"},
			{Name: "db", ID: "1cHhNEk0_BfDmp_MAUO5ubStPBYkzJnPE"},
			{Name: "filters", ID: "1fvni13AN9E_pxqEuuRT4tc2PIIgztw7P"},
			{Name: "ipp", ID: "1tMCgWtaF8iu_wqjXhyOd0wn4CZ_pFsmQ"},
			{Name: "lame", ID: "1_69Z-394jv2M1J--TRyD7Botuyxvpv8q"},
			{Name: "opus", ID: "1WON36LqnKiQqNHAZCTeL3qOmGaWHIQMh"},
			{Name: "vpx", ID: "1uWWiu6_7cBAtdXog06AIT-cggzsF69UQ"},
			{Name: "web_m", ID: "1Roe3DWRoR5jg1GqTsvpFSU_t3KsUabH9"},
			{Name: "open_ssl", ID: "1U5Pm4iiJumWcDC03bLd6NY_ifdhCYB2m"},
			{Name: "wui", ID: "1M0XXtbu_pZYppD9FhyBV3hQWoizjQvBE"},
		}
	}

	return Catalog{
		{Name: "boost", ID: "1Gmtj8Q0Wwz66aNxieyrN0ESoFK_eX5i4"},
		{Name: "db", ID: "1rnQHwFwclj37z-dbnhXbwtFL4VhciDzr"},
		{Name: "ipp", ID: "1pERT7jJj19xm7n2EkHXVHD3ocRvQXP3a"},
		{Name: "lame", ID: "1uPlI10YGXg_OwEVFp6s2Yh9DL8upWDKB"},
		{Name: "opus", ID: "1UePbTVzcbh3nBU4qJfJVsZBMgxwXn5QU"},
		{Name: "vpx", ID: "1itxXUHPcsP0pYJ353k1NuvmXqglO61P"},
		{Name: "web_m", ID: "1e1FAoztxQ2r7Y5bl8AYSsEY59R_8XhGH"},
		{Name: "open_ssl", ID: "1-BB5E9sW7MYf-kV5XIwr7rES6YEeVWGh"},
		{Name: "wui", ID: "1wkuiUt2ur91tHmTutmKOShQ7IhSwtpEE"},
	}
}
