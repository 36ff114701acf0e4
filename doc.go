// Package pluginloader discovers and loads plugin units for a host
// application and keeps a registry of the implementations they contribute.
//
// Plugin units are Go plugins (shared objects built with -buildmode=plugin)
// exporting a Register entry point. Three independent sources feed the loader:
//
//   - in-tree packages shipped under the host install root (ImportPackage)
//   - provider entries declared by installed distributions (ImportProviderEntries)
//   - ad hoc files and directories supplied at runtime (LoadPath)
//
// Every unit is recorded under a dotted identity in the import table, so a
// unit is opened and registered at most once per process. Failures in
// provider and ad hoc units are isolated and logged; the caller decides
// whether to stop on them.
//
// Basic Usage:
//
//	// In the plugin unit (package main, built with -buildmode=plugin)
//	func Register(r *pluginloader.ImplementationRegistry) error {
//		return r.Specialize("scenario", pluginloader.Implementation{
//			Name:    "boot_server",
//			Factory: func() any { return &BootServer{} },
//		})
//	}
//
//	// In the host
//	loader, err := pluginloader.NewLoader(pluginloader.Config{
//		Product:     "rally",
//		InstallRoot: root,
//		Packages:    []string{"rally.plugins"},
//		PluginPaths: []string{"/etc/rally/plugins"},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	if _, err := loader.LoadAll(ctx); err != nil {
//		log.Fatal(err)
//	}
//	impls, err := loader.Registry().Implementations("scenario")
//	for impl := range impls {
//		fmt.Println(impl.Name)
//	}
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package pluginloader
