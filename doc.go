// Package jcr is a client for the Magnolia JCR REST API.
//
// Content lives in workspaces as a tree of typed nodes carrying typed
// properties. Nodes are edited locally and synchronized explicitly: a Node
// tracks which properties changed or were removed since it was last loaded,
// created or saved, and Save sends only those.
//
// Basic usage:
//
//	c, _ := jcr.New(
//	    jcr.WithBaseURL("http://localhost:8080/.rest"),
//	    jcr.WithCredentials("superuser", "superuser"),
//	)
//
//	// Read a page with one level of children
//	page, _ := c.Get(ctx, "/website/travel", jcr.WithDepth(1))
//	fmt.Println(page.GetProperty("title"))
//
//	// Change it
//	page.SetProperty("title", "Travel")
//	page.DeleteProperty("hideInNav")
//	c.Save(ctx, page)
//
// Creating below missing parents:
//
//	about := jcr.NewPage("/website/travel/company/about", "travel:pages/about")
//	err := c.Create(ctx, about, jcr.WithParentPrototype(jcr.NewFolder("")))
//
// Without a prototype a missing parent fails with ErrNotFound. With one, the
// client looks up the existing part of the path in a single request and creates
// every missing ancestor as a copy of the prototype before retrying.
//
// Property values map to JCR types as follows:
//
//	string      String
//	bool        Boolean
//	integers    Long (floats without a fraction too)
//	float64     Double
//	time.Time   Date
//	[]byte      Binary, sent base64 encoded; never decoded on read
//
// Slices produce multi-valued properties of the element type.
package jcr
