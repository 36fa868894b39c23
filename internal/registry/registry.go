// Package registry holds the static geospatial data for the monitored
// region: the district centroids and the provincial macro bounding box.
package registry

import (
	"fmt"

	"github.com/smogwatch/smog-ingest/internal/domain"
)

// MacroBBox covers all of Punjab plus Islamabad in the W,S,E,N order the
// FIRMS area API expects. One bulk fire query per cycle uses this box.
const MacroBBox = "69.0,27.5,75.5,34.5"

// districts lists the 41 Punjab districts plus the federal capital, grouped
// by division. Order is fixed; the pipeline iterates it as-is so collection
// order (and therefore provider call order) is deterministic.
var districts = []domain.District{
	// Federal capital
	{Name: "Islamabad", Lat: 33.6844, Lon: 73.0479},

	// Rawalpindi division
	{Name: "Rawalpindi", Lat: 33.5651, Lon: 73.0169},
	{Name: "Attock", Lat: 33.7660, Lon: 72.3609},
	{Name: "Chakwal", Lat: 32.9328, Lon: 72.8548},
	{Name: "Jhelum", Lat: 32.9405, Lon: 73.7276},
	{Name: "Murree", Lat: 33.9070, Lon: 73.3943},
	{Name: "Talagang", Lat: 32.9297, Lon: 72.4146},

	// Gujranwala division
	{Name: "Gujranwala", Lat: 32.1603, Lon: 74.1883},
	{Name: "Sialkot", Lat: 32.4945, Lon: 74.5229},
	{Name: "Narowal", Lat: 32.0998, Lon: 74.8744},

	// Gujrat division
	{Name: "Gujrat", Lat: 32.5738, Lon: 74.0802},
	{Name: "Hafizabad", Lat: 32.0679, Lon: 73.6851},
	{Name: "Mandi Bahauddin", Lat: 32.5870, Lon: 73.4912},
	{Name: "Wazirabad", Lat: 32.4432, Lon: 74.1200},

	// Lahore division
	{Name: "Lahore", Lat: 31.5204, Lon: 74.3587},
	{Name: "Kasur", Lat: 31.1187, Lon: 74.4507},
	{Name: "Sheikhupura", Lat: 31.7131, Lon: 73.9783},
	{Name: "Nankana Sahib", Lat: 31.4492, Lon: 73.7124},

	// Faisalabad division
	{Name: "Faisalabad", Lat: 31.4504, Lon: 73.1350},
	{Name: "Jhang", Lat: 31.2780, Lon: 72.3118},
	{Name: "Toba Tek Singh", Lat: 30.9709, Lon: 72.4827},
	{Name: "Chiniot", Lat: 31.7200, Lon: 72.9789},

	// Sargodha division
	{Name: "Sargodha", Lat: 32.0836, Lon: 72.6711},
	{Name: "Khushab", Lat: 32.2952, Lon: 72.3489},
	{Name: "Mianwali", Lat: 32.5839, Lon: 71.5370},
	{Name: "Bhakkar", Lat: 31.6252, Lon: 71.0657},

	// Sahiwal division
	{Name: "Sahiwal", Lat: 30.6682, Lon: 73.1114},
	{Name: "Okara", Lat: 30.8090, Lon: 73.4508},
	{Name: "Pakpattan", Lat: 30.3432, Lon: 73.3894},

	// Multan division
	{Name: "Multan", Lat: 30.1575, Lon: 71.5249},
	{Name: "Khanewal", Lat: 30.3017, Lon: 71.9321},
	{Name: "Lodhran", Lat: 29.5467, Lon: 71.6276},
	{Name: "Vehari", Lat: 30.0333, Lon: 72.3500},

	// Dera Ghazi Khan division
	{Name: "Dera Ghazi Khan", Lat: 30.0489, Lon: 70.6455},
	{Name: "Rajanpur", Lat: 29.1035, Lon: 70.3250},
	{Name: "Muzaffargarh", Lat: 30.0754, Lon: 71.1921},
	{Name: "Layyah", Lat: 30.9613, Lon: 70.9390},
	{Name: "Kot Addu", Lat: 30.4735, Lon: 70.9664},
	{Name: "Taunsa", Lat: 30.7048, Lon: 70.6505},

	// Bahawalpur division
	{Name: "Bahawalpur", Lat: 29.3544, Lon: 71.6911},
	{Name: "Bahawalnagar", Lat: 29.9987, Lon: 73.2536},
	{Name: "Rahim Yar Khan", Lat: 28.4212, Lon: 70.2989},
}

// Districts returns the configured districts in fixed iteration order.
// The returned slice is a copy; callers cannot mutate the registry.
func Districts() []domain.District {
	out := make([]domain.District, len(districts))
	copy(out, districts)
	return out
}

// Count returns the number of configured districts.
func Count() int {
	return len(districts)
}

// Lookup finds a district by name.
func Lookup(name string) (domain.District, error) {
	for _, d := range districts {
		if d.Name == name {
			return d, nil
		}
	}
	return domain.District{}, fmt.Errorf("unknown district %q", name)
}
