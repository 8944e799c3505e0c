package testutil

import "time"

// Epoch is the reference instant used by engine and display tests.
var Epoch = time.Date(2025, time.October, 4, 12, 0, 0, 0, time.FixedZone("MDT", -6*60*60))

// SampleCatalogYAML is a two-event catalog: one past event with photos and
// one upcoming event with a countdown instant.
var SampleCatalogYAML = `
events:
  - slug: past-night
    title: Past Night
    date: "2025-10-01"
    venue: Orchid Denver
    city: Denver, CO
    description: A packed night.
    cover_image: /images/past/1.jpg
    photos:
      - src: /images/past/1.jpg
      - src: /images/past/2.jpg
        alt: Crowd
      - src: /images/past/3.jpg
  - slug: next-night
    title: Next Night
    date: "2025-10-04"
    starts_at: "2025-10-04T21:00:00-06:00"
    venue: Owambe Lounge
    city: Colorado Springs, CO
    description: Part II.
    cover_image: /images/next/flyer.jpg
    ticket_url: https://tickets.example.com/next-night
`

// EmptyCatalogYAML is a catalog with no events.
var EmptyCatalogYAML = `events: []`

// DuplicateSlugCatalogYAML fails validation.
var DuplicateSlugCatalogYAML = `
events:
  - slug: twice
    title: One
    date: "2025-10-01"
  - slug: twice
    title: Two
    date: "2025-10-02"
`
