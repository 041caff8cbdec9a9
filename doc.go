// Package arctic is a charge-transfer-inefficiency (CTI) simulation engine
// for CCD sensors: it trails synthetic images forward through a trap
// population (add_cti) and estimates pre-CTI images from observed ones by
// inverting that trail (remove_cti).
//
// Package layout, in dependency order:
//
//	pixel    dense electron-count image and the scalar ops correct/clock need
//	traps    trap species models and the per-phase watermark occupancy store
//	ccd      potential-well fill model, multi-phase trap-fraction split
//	roe      clocking-sequence parameters and the express/monitor matrices
//	clock    the forward-trailing clocker (columns x express steps x rows x phases)
//	correct  the fixed-point corrector built on top of a clocker
//	(root)   AddCTI / RemoveCTI, the only two public operations
//
// Start with AddCTI if you have a clean image and want to simulate trailing;
// start with RemoveCTI if you have an observed image and want the CTI
// removed. Both take one DirectionParams per clocking direction (parallel,
// serial, or both); see config.go.
package arctic
