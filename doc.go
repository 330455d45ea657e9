// Package dehnvol searches the Dehn fillings of cusped hyperbolic
// 3-manifolds for fillings of equal volume and separates the coincidences
// that declared symmetries of the volume function explain from those they
// do not.
//
// # Quick Start
//
//	table, warnings, _ := symmetry.Load(ctx, blobstore.NewLocalStore("."), "symmetries.yaml")
//	s, _ := dehnvol.New(engine,
//	    dehnvol.WithSymmetries(table),
//	    dehnvol.WithTolerance(grouping.Relative(1e-9)),
//	)
//	defer s.Close()
//
//	batch, _ := s.Search(ctx, []model.Manifold{model.Named("m004")}, 20)
//	_ = report.Text{}.RenderBatch(os.Stdout, batch)
//
// # Pipeline
//
// For every manifold the admissible slopes up to the bound are enumerated and
// solved on a shared worker pool. Successful volumes are partitioned into
// volume groups under the tolerance, where chains of close volumes form one
// group. When the oracle supports extended precision, groups with more than
// one member are re-solved at each refinement stage and split where the
// precise volumes differ. Each remaining group is then classified against the
// orbits of the manifold's symmetry group as explained, unexplained or
// inconsistent.
//
// # Targeted checks
//
//	res, _ := s.Check(ctx, 7, 11, dehnvol.ForManifold(model.Named("m004")))
//	fmt.Println(res.Equivalent, res.Orbit)
//
// Verify runs the same check with volume verification against every
// manifold of the symmetry table.
package dehnvol
