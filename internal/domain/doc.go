// Package domain models wildfire markers and the data conventions of the
// upstream services that feed them.
//
// # Data Source
//
// Fire detections come from NASA FIRMS (Fire Information for Resource
// Management System), area API, at
// https://firms.modaps.eosdis.nasa.gov/api/area/. The CSV payload carries a
// header row; only the "latitude" and "longitude" columns are used here.
// A typical VIIRS world/7-day pull returns tens of thousands of rows, which
// is why the pipeline keeps only one detection per sampling block.
//
// # Coordinate Order
//
// Stored marker locations are [longitude, latitude], the column order the
// map client consumes (GeoJSON order). Every upstream API in this service
// takes latitude first, so callers go through [Coordinate] rather than raw
// slices to avoid swapping the pair.
//
// # Enrichment Conventions
//
// Weather (OpenWeatherMap "current weather", metric units):
//
//	temperature    °C        main.temp
//	humidity       %         main.humidity
//	wind_speed     m/s       wind.speed
//	wind_direction degrees   wind.deg
//	wind_gust      m/s       wind.gust, 0 when the station reports none
//	rain           mm        rain.1h, 0 when absent
//	clouds         %         clouds.all
//
// When the exact coordinate fails, the lookup is retried once with both
// components rounded to one decimal place (about 11 km). When that also
// fails, plausible values are drawn at random from [SyntheticRanges].
//
// Location names (Nominatim reverse geocoding): country from address.country,
// region from the first non-empty of address.state, address.county,
// address.province. Failed lookups use [UnknownPlace].
//
// # Spread Radius
//
// The spread estimate is produced by a generative model from a prompt that
// embeds the coordinate and weather values. The model's reply is free text;
// see [ParseSpreadRadius] for the order in which it is interpreted.
package domain
