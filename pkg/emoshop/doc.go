// Package emoshop ranks a product catalog for a shopper's detected mood.
//
// Quick start:
//
//	r, err := emoshop.New(emoshop.WithLocale("en"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res := r.Recommend(products, emoshop.Query{Emotion: emoshop.Happy})
//	fmt.Println(res.Title, len(res.Items))
//
// A Recommender is immutable after New and safe for concurrent use.
// Products are never modified; every call returns fresh slices.
package emoshop
